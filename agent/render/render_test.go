package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/events"
)

func TestMessageCarriesContent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []contractx.ChatMessage{
		contractx.NewChatMessage("Hola Sofia! Soy Ana", contractx.SenderClient, contractx.MessageText, now),
		contractx.NewChatMessage("¡Hola Ana!", contractx.SenderAgent, contractx.MessageText, now),
		contractx.NewChatMessage("🏁 Conversación terminada", contractx.SenderClient, contractx.MessageSystem, now),
	}
	for _, msg := range cases {
		out := Event(contractx.MessageEvent(msg))
		if !strings.Contains(out, msg.Content) {
			t.Fatalf("rendered %q lacks content %q", out, msg.Content)
		}
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	out := Stats(contractx.Stats{
		IncomeCount:  1,
		ExpenseCount: 1,
		NameDetected: true,
		Transactions: []contractx.TypedTransaction{
			{Transaction: contractx.Transaction{Amount: 3500, Label: "sueldo"}, Type: contractx.TransactionIncome},
			{Transaction: contractx.Transaction{Amount: 450.5, Label: "alimentación"}, Type: contractx.TransactionExpense},
		},
		TotalIncome:   3500,
		TotalExpenses: 450.5,
		Balance:       3049.5,
	})
	for _, want := range []string{"S/3500.00", "S/450.50", "S/3049.50", "sueldo", "sí"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output lacks %q:\n%s", want, out)
		}
	}
}

func TestDrainStopsOnClose(t *testing.T) {
	t.Parallel()

	q := events.NewQueue()
	q.Publish(contractx.MessageEvent(contractx.NewChatMessage("uno", contractx.SenderClient, contractx.MessageText, time.Now())))
	q.Publish(contractx.MessageEvent(contractx.NewChatMessage("dos", contractx.SenderAgent, contractx.MessageText, time.Now())))
	q.Close()

	var buf bytes.Buffer
	if err := NewPrinter(&buf).Drain(context.Background(), q); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	out := buf.String()
	if strings.Index(out, "uno") < 0 || strings.Index(out, "uno") > strings.Index(out, "dos") {
		t.Fatalf("events out of order:\n%s", out)
	}
}

func TestAnalysisHeader(t *testing.T) {
	t.Parallel()

	out := Analysis("Vas bien")
	if !strings.Contains(out, "Análisis financiero") || !strings.Contains(out, "Vas bien") {
		t.Fatalf("Analysis() = %q", out)
	}
}
