package client

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/extract"
)

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []contractx.GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req contractx.GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func testPersona() contractx.Persona {
	return contractx.Persona{Name: "José", Age: 40, Profession: "contador", Personality: "práctica y directa", FinancialSituation: "quiere empezar a ahorrar"}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestMessageUsesGenerator(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "  Hola! Soy José  "}
	sim := New(gen, testPersona(), seeded())

	text, fallback := sim.Message(context.Background(), 0)
	if fallback {
		t.Fatal("expected remote message, got fallback")
	}
	if text != "Hola! Soy José" {
		t.Fatalf("Message() = %q", text)
	}

	req := gen.reqs[0]
	if req.MaxTokens != 150 || req.Temperature != 0.7 {
		t.Fatalf("unexpected limits: %+v", req)
	}
	if req.Search == nil || req.Search.ContextSize != "low" || len(req.Search.DomainFilter) != 5 {
		t.Fatalf("unexpected search options: %+v", req.Search)
	}
	if !strings.Contains(req.SystemPrompt, "Eres José") {
		t.Fatalf("system prompt lacks persona: %s", req.SystemPrompt)
	}
	if !strings.Contains(req.UserPrompt, "para greeting") {
		t.Fatalf("user prompt lacks intent: %s", req.UserPrompt)
	}
}

func TestMessageFallsBackOnErrorOrEmptyText(t *testing.T) {
	t.Parallel()

	for _, gen := range []*fakeGenerator{
		{err: errors.New("timeout")},
		{reply: "   "},
	} {
		sim := New(gen, testPersona(), seeded())
		text, fallback := sim.Message(context.Background(), 0)
		if !fallback {
			t.Fatal("expected fallback")
		}
		if !strings.Contains(text, "José") {
			t.Fatalf("greeting fallback should name the persona, got %q", text)
		}
		if len(gen.reqs) != 1 {
			t.Fatalf("remote attempts = %d, want exactly 1", len(gen.reqs))
		}
	}
}

func TestOfflineFallbacksCarryExtractableFacts(t *testing.T) {
	t.Parallel()

	sim := New(nil, testPersona(), seeded())
	for i := 0; i < 30; i++ {
		text, fallback := sim.Message(context.Background(), 2)
		if !fallback {
			t.Fatal("offline simulator must use fallback")
		}
		amounts := extractx.ExtractAmounts(text)
		if len(amounts) != 1 || amounts[0] < 150 || amounts[0] >= 1200 {
			t.Fatalf("expense fallback %q produced amounts %v", text, amounts)
		}
	}
}

func TestMessageOutOfPlan(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "x"}
	sim := New(gen, testPersona(), seeded())
	text, fallback := sim.Message(context.Background(), contractx.TotalSteps())
	if !fallback || text != defaultFallback {
		t.Fatalf("Message(out of plan) = %q, %v", text, fallback)
	}
	if len(gen.reqs) != 0 {
		t.Fatal("no remote call expected outside the plan")
	}
}

func TestHistoryKeepsLastTwoExchanges(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "ok"}
	sim := New(gen, testPersona(), seeded())
	sim.AddToHistory("uno", "r1")
	sim.AddToHistory("dos", "r2")
	sim.AddToHistory("tres", "r3")

	sim.Message(context.Background(), 3)
	prompt := gen.reqs[0].UserPrompt
	if strings.Contains(prompt, `"uno"`) {
		t.Fatalf("oldest exchange should be dropped:\n%s", prompt)
	}
	if !strings.Contains(prompt, `Tú: "dos"`) || !strings.Contains(prompt, `SofIA: "r3"`) {
		t.Fatalf("recent exchanges missing:\n%s", prompt)
	}
}
