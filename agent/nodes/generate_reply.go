package advisornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	promptx "github.com/tanpawarit/Chative-Finance-Simulator/agent/prompt"
)

const (
	replyMaxTokens   = 1500
	replyTemperature = 0.7
	recentExchanges  = 2
)

var advisorSearchDomains = []string{
	"wikipedia.org",
	"bcp.com.pe",
	"interbank.pe",
	"bbva.pe",
	"scotiabank.com.pe",
	"-pinterest.com",
	"-reddit.com",
}

// GenerateReply asks the remote generator for an answer. A nil generator or a
// failed call leaves in.Reply empty so finalize_reply can answer locally.
func GenerateReply(
	ctx context.Context,
	in *GraphState,
	gen contractx.TextGenerator,
	prompts promptx.PromptSet,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if gen == nil {
		return in, nil
	}

	profile := in.Context.UserProfile
	system, err := prompts.AdvisorSystem(promptx.AdvisorSystemData{
		UserName:          profile.Name,
		TotalInteractions: in.Context.TotalInteractions,
		HasFinancialData:  len(profile.FinancialData.Income)+len(profile.FinancialData.Expenses) > 0,
	})
	if err != nil {
		in.RemoteErr = err
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("render advisor prompt failed, answering locally")
		return in, nil
	}

	reply, err := gen.Generate(ctx, contractx.GenerateRequest{
		SystemPrompt: system,
		UserPrompt:   AdvisorUserPrompt(in.Text, in.Context),
		MaxTokens:    replyMaxTokens,
		Temperature:  replyTemperature,
		Search: &contractx.SearchOptions{
			ContextSize:  "medium",
			DomainFilter: append([]string(nil), advisorSearchDomains...),
		},
	})
	if err == nil {
		reply = strings.TrimSpace(reply)
		if reply == "" {
			err = contractx.ErrEmptyCompletion
		}
	}
	if err != nil {
		in.RemoteErr = err
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("advisor generation failed, answering locally")
		return in, nil
	}

	in.Reply = reply
	return in, nil
}

// AdvisorUserPrompt frames the client's message with the last exchanges and a
// summary of the recorded finances.
func AdvisorUserPrompt(message string, cc contractx.ConversationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "El usuario me escribió: \"%s\"", message)

	recent := cc.RecentMessages
	if len(recent) > recentExchanges {
		recent = recent[len(recent)-recentExchanges:]
	}
	if len(recent) > 0 {
		b.WriteString("\n\nConversación reciente:")
		for i, ex := range recent {
			fmt.Fprintf(&b, "\n%d. Usuario: \"%s\"", i+1, ex.User)
			fmt.Fprintf(&b, "\n   SofIA: \"%s\"", ex.Agent)
		}
	}

	fd := cc.UserProfile.FinancialData
	if len(fd.Income)+len(fd.Expenses) > 0 {
		b.WriteString("\n\nSu situación financiera:")
		if len(fd.Income) > 0 {
			fmt.Fprintf(&b, "\n- Ingresos: S/%s (%d registros)", sum(fd.Income).String(), len(fd.Income))
		}
		if len(fd.Expenses) > 0 {
			fmt.Fprintf(&b, "\n- Gastos: S/%s (%d registros)", sum(fd.Expenses).String(), len(fd.Expenses))
		}
	}

	b.WriteString("\n\nResponde como SofIA de forma natural y personalizada para esta situación específica.")
	return b.String()
}

func sum(txs []contractx.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(decimal.NewFromFloat(tx.Amount))
	}
	return total
}
