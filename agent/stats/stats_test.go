package stats

import (
	"testing"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

func TestAggregateEmptyProfile(t *testing.T) {
	t.Parallel()

	s := Aggregate(contractx.UserProfile{})
	if s.IncomeCount != 0 || s.ExpenseCount != 0 || s.NameDetected {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.Transactions == nil || len(s.Transactions) != 0 {
		t.Fatalf("Transactions = %#v, want empty non-nil slice", s.Transactions)
	}
}

func TestAggregateOrdersAndTotals(t *testing.T) {
	t.Parallel()

	profile := contractx.UserProfile{
		Name: "Carmen",
		FinancialData: contractx.FinancialData{
			Income: []contractx.Transaction{
				{ID: "i1", Amount: 3500.10, Label: "sueldo"},
				{ID: "i2", Amount: 0.20, Label: "ventas"},
			},
			Expenses: []contractx.Transaction{
				{ID: "e1", Amount: 500.05, Label: "alimentación"},
			},
		},
	}

	s := Aggregate(profile)
	if s.IncomeCount != 2 || s.ExpenseCount != 1 || !s.NameDetected {
		t.Fatalf("unexpected counts: %+v", s)
	}

	wantOrder := []string{"i1", "i2", "e1"}
	wantType := []contractx.TransactionType{contractx.TransactionIncome, contractx.TransactionIncome, contractx.TransactionExpense}
	for i, tx := range s.Transactions {
		if tx.ID != wantOrder[i] || tx.Type != wantType[i] {
			t.Fatalf("Transactions[%d] = %s/%s, want %s/%s", i, tx.ID, tx.Type, wantOrder[i], wantType[i])
		}
	}

	if s.TotalIncome != 3500.30 {
		t.Fatalf("TotalIncome = %v, want 3500.30", s.TotalIncome)
	}
	if s.TotalExpenses != 500.05 {
		t.Fatalf("TotalExpenses = %v, want 500.05", s.TotalExpenses)
	}
	if s.Balance != 3000.25 {
		t.Fatalf("Balance = %v, want 3000.25", s.Balance)
	}
}
