package advisornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/extract"
)

// RegisterFacts records the name and every income or expense candidate found
// in the client's message on the user's profile.
func RegisterFacts(
	ctx context.Context,
	in *GraphState,
	store contractx.ConversationStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Facts = extractx.DetectFacts(in.Text)
	if in.Facts.Empty() {
		return in, nil
	}

	if in.Facts.Name != "" {
		name := in.Facts.Name
		store.UpdateUserProfile(in.UserID, contractx.ProfilePatch{Name: &name})
		in.Name = name
	}

	if !in.Facts.HasAmounts() {
		return in, nil
	}

	fd := store.GetUserProfile(in.UserID).FinancialData
	fd.Income = appendCandidates(fd.Income, in.Facts.Income, in)
	fd.Expenses = appendCandidates(fd.Expenses, in.Facts.Expenses, in)
	store.UpdateUserProfile(in.UserID, contractx.ProfilePatch{FinancialData: &fd})

	log.Debug().
		Str("user_id", in.UserID).
		Int("income", len(in.Facts.Income)).
		Int("expenses", len(in.Facts.Expenses)).
		Msg("financial facts registered")
	return in, nil
}

func appendCandidates(dst []contractx.Transaction, found []extractx.Candidate, in *GraphState) []contractx.Transaction {
	for _, c := range found {
		tx, err := contractx.NewTransaction(c.Amount, c.Label, contractx.DefaultCurrency, in.Now)
		if err != nil {
			log.Warn().Err(err).Str("user_id", in.UserID).Msg("skipping candidate")
			continue
		}
		dst = append(dst, tx)
	}
	return dst
}
