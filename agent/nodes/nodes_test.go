package advisornode

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/extract"
)

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	if _, err := ValidateRequest(GraphInput{UserID: "", Text: "hola"}, now); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("err = %v, want ErrInvalidUser", err)
	}
	if _, err := ValidateRequest(GraphInput{UserID: "u", Text: " \n"}, now); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("err = %v, want ErrInvalidMessage", err)
	}

	st, err := ValidateRequest(GraphInput{UserID: " u ", Text: " hola "}, now)
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.UserID != "u" || st.Text != "hola" || !st.Now.Equal(now()) {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestAdvisorUserPrompt(t *testing.T) {
	t.Parallel()

	cc := contractx.ConversationContext{
		RecentMessages: []contractx.Exchange{
			{User: "uno", Agent: "a1"},
			{User: "dos", Agent: "a2"},
			{User: "tres", Agent: "a3"},
		},
		UserProfile: contractx.UserProfile{FinancialData: contractx.FinancialData{
			Income:   []contractx.Transaction{{Amount: 3000}, {Amount: 500.5}},
			Expenses: []contractx.Transaction{{Amount: 120}},
		}},
	}

	got := AdvisorUserPrompt("Hola", cc)
	for _, want := range []string{
		`El usuario me escribió: "Hola"`,
		"\n1. Usuario: \"dos\"",
		"\n   SofIA: \"a3\"",
		"\n- Ingresos: S/3500.5 (2 registros)",
		"\n- Gastos: S/120 (1 registros)",
		"Responde como SofIA",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "uno") {
		t.Fatalf("only the last two exchanges belong in the prompt:\n%s", got)
	}
}

func TestAdvisorUserPromptWithoutHistory(t *testing.T) {
	t.Parallel()

	got := AdvisorUserPrompt("Hola", contractx.ConversationContext{})
	if strings.Contains(got, "Conversación reciente") || strings.Contains(got, "situación financiera") {
		t.Fatalf("unexpected sections:\n%s", got)
	}
}

func TestLocalReply(t *testing.T) {
	t.Parallel()

	first := func(int) int { return 0 }

	welcome := LocalReply(&GraphState{Text: "hola"}, first)
	if welcome != welcomeReply {
		t.Fatalf("expected welcome, got %q", welcome)
	}

	one := LocalReply(&GraphState{Text: "Gané 1,500.50 hoy", Name: "Ana", Context: contractx.ConversationContext{TotalInteractions: 1}}, first)
	if !strings.Contains(one, "Son S/1500.5 ¿verdad?") {
		t.Fatalf("single amount reply = %q", one)
	}

	basic := LocalReply(&GraphState{Text: "ok", Name: "Ana", Context: contractx.ConversationContext{TotalInteractions: 3}}, first)
	if !strings.HasPrefix(basic, "Ana, entiendo perfectamente") {
		t.Fatalf("basic reply = %q", basic)
	}
}

func TestFinalizeReplyPrefersRemote(t *testing.T) {
	t.Parallel()

	out, err := FinalizeReply(context.Background(), &GraphState{Reply: " remoto ", Facts: extractx.Facts{Name: "Ana"}}, nil)
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	if out.Reply != "remoto" || out.Local || out.Facts.Name != "Ana" {
		t.Fatalf("unexpected output %+v", out)
	}

	if _, err := FinalizeReply(context.Background(), nil, nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("nil state err = %v", err)
	}
}
