package contract

import (
	"errors"
	"testing"
	"time"
)

func TestNewTransactionRejectsNonPositiveAmounts(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, amount := range []float64{0, -1, -1500.5} {
		if _, err := NewTransaction(amount, "sueldo", "", now); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("NewTransaction(%v) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestNewTransactionDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tx, err := NewTransaction(3500, "  ", "", now)
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated id")
	}
	if tx.Label != LabelUnspecified {
		t.Fatalf("Label = %q, want %q", tx.Label, LabelUnspecified)
	}
	if tx.Currency != DefaultCurrency {
		t.Fatalf("Currency = %q, want %q", tx.Currency, DefaultCurrency)
	}
	if !tx.AIProcessed {
		t.Fatal("expected AIProcessed to be set")
	}
	if !tx.Date.Equal(now) {
		t.Fatalf("Date = %v, want %v", tx.Date, now)
	}
}

func TestNewConversationStateBounds(t *testing.T) {
	t.Parallel()

	if _, err := NewConversationState(true, false, 8, 8); err != nil {
		t.Fatalf("NewConversationState(step=total) error = %v", err)
	}
	if _, err := NewConversationState(true, false, 9, 8); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep for step > total, got %v", err)
	}
	if _, err := NewConversationState(true, false, -1, 8); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep for negative step, got %v", err)
	}
}

func TestTestPlanIsACopy(t *testing.T) {
	t.Parallel()

	plan := TestPlan()
	if len(plan) != 8 || TotalSteps() != 8 {
		t.Fatalf("unexpected plan length: %d", len(plan))
	}
	plan[0] = IntentFarewell
	if TestPlan()[0] != IntentGreeting {
		t.Fatal("mutating the returned plan must not change the shared plan")
	}
}

func TestProfileCloneIsDeep(t *testing.T) {
	t.Parallel()

	p := UserProfile{FinancialData: FinancialData{Income: []Transaction{{ID: "a", Amount: 1}}}}
	c := p.Clone()
	c.FinancialData.Income[0].Amount = 99
	if p.FinancialData.Income[0].Amount != 1 {
		t.Fatal("clone shares the income slice with the original")
	}
}
