package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	promptx "github.com/tanpawarit/Chative-Finance-Simulator/agent/prompt"
)

const (
	maxTokens   = 150
	temperature = 0.7
	historySize = 2
)

var searchDomains = []string{
	"wikipedia.org",
	"bcp.com.pe",
	"interbank.pe",
	"-pinterest.com",
	"-reddit.com",
}

type exchange struct {
	user  string
	agent string
}

// Simulator writes the synthetic client's side of the conversation.
type Simulator struct {
	gen     contractx.TextGenerator
	prompts promptx.PromptSet
	persona contractx.Persona
	plan    []contractx.Intent

	mu      sync.Mutex
	rng     *rand.Rand
	history []exchange
}

var _ contractx.ClientSimulator = (*Simulator)(nil)

// New builds a simulator for persona. A nil gen means every message comes
// from the canned fallback tables.
func New(gen contractx.TextGenerator, persona contractx.Persona, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{
		gen:     gen,
		prompts: promptx.LoadPromptSet(),
		persona: persona,
		plan:    contractx.TestPlan(),
		rng:     rng,
	}
}

func (s *Simulator) Persona() contractx.Persona {
	return s.persona
}

// Message produces the client message for plan step. The boolean reports
// whether the canned fallback was used. At most one remote attempt is made.
func (s *Simulator) Message(ctx context.Context, step int) (string, bool) {
	intent := contractx.Intent("")
	if step >= 0 && step < len(s.plan) {
		intent = s.plan[step]
	}

	if s.gen == nil || intent == "" {
		return s.fallback(intent), true
	}

	req, err := s.buildRequest(intent)
	if err != nil {
		log.Warn().Err(err).Str("intent", string(intent)).Msg("build client prompt failed, using fallback")
		return s.fallback(intent), true
	}

	text, err := s.gen.Generate(ctx, req)
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		log.Warn().Err(err).Str("intent", string(intent)).Int("step", step).Msg("client generation failed, using fallback")
		return s.fallback(intent), true
	}
	return text, false
}

func (s *Simulator) AddToHistory(userMessage, agentReply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, exchange{user: userMessage, agent: agentReply})
	if len(s.history) > historySize {
		s.history = append([]exchange(nil), s.history[len(s.history)-historySize:]...)
	}
}

func (s *Simulator) fallback(intent contractx.Intent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fallbackMessage(s.rng, s.persona, intent)
}

func (s *Simulator) buildRequest(intent contractx.Intent) (contractx.GenerateRequest, error) {
	system, err := s.prompts.ClientSystem(promptx.ClientSystemData{
		Persona:   s.persona,
		Objective: promptx.IntentDescription(intent),
	})
	if err != nil {
		return contractx.GenerateRequest{}, err
	}

	return contractx.GenerateRequest{
		SystemPrompt: system,
		UserPrompt:   s.userPrompt(intent),
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		Search: &contractx.SearchOptions{
			ContextSize:  "low",
			DomainFilter: append([]string(nil), searchDomains...),
		},
	}, nil
}

func (s *Simulator) userPrompt(intent contractx.Intent) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Genera UN mensaje de WhatsApp natural para %s.", intent)
	if len(s.history) > 0 {
		b.WriteString("\n\nConversación previa (últimos 2 intercambios):")
		for _, ex := range s.history {
			fmt.Fprintf(&b, "\nTú: \"%s\"", ex.user)
			fmt.Fprintf(&b, "\nSofIA: \"%s\"", ex.agent)
		}
	}
	b.WriteString("\n\nEscribe tu próximo mensaje considerando tu personalidad y el contexto.")
	return b.String()
}
