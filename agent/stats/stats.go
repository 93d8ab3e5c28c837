package stats

import (
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

// Aggregate summarises what was extracted into a profile. Income entries
// come first in Transactions, then expenses, each in insertion order.
func Aggregate(profile contractx.UserProfile) contractx.Stats {
	data := profile.FinancialData

	out := contractx.Stats{
		IncomeCount:  len(data.Income),
		ExpenseCount: len(data.Expenses),
		NameDetected: profile.Name != "",
		Transactions: make([]contractx.TypedTransaction, 0, len(data.Income)+len(data.Expenses)),
	}

	income := decimal.Zero
	for _, tx := range data.Income {
		out.Transactions = append(out.Transactions, contractx.TypedTransaction{Transaction: tx, Type: contractx.TransactionIncome})
		income = income.Add(decimal.NewFromFloat(tx.Amount))
	}
	expenses := decimal.Zero
	for _, tx := range data.Expenses {
		out.Transactions = append(out.Transactions, contractx.TypedTransaction{Transaction: tx, Type: contractx.TransactionExpense})
		expenses = expenses.Add(decimal.NewFromFloat(tx.Amount))
	}

	out.TotalIncome = income.InexactFloat64()
	out.TotalExpenses = expenses.InexactFloat64()
	out.Balance = income.Sub(expenses).InexactFloat64()
	return out
}
