package extract

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

var (
	incomeKeywords  = []string{"gané", "ganó", "ingreso", "sueldo", "salario", "comisión", "básico", "pago"}
	expenseKeywords = []string{"gasté", "gastó", "compré", "pagué", "gasto"}
)

type labelRule struct {
	keyword string
	label   string
}

// Ordered: the first keyword found in the text picks the label.
var (
	incomeSources = []labelRule{
		{"comisión", "comisiones"},
		{"sueldo", "sueldo"},
		{"básico", "sueldo básico"},
		{"ventas", "ventas"},
		{"trabajo", "trabajo"},
	}
	expenseCategories = []labelRule{
		{"super", "alimentación"},
		{"comida", "alimentación"},
		{"luz", "servicios"},
		{"agua", "servicios"},
		{"transporte", "transporte"},
		{"ropa", "ropa"},
		{"gasolina", "transporte"},
	}
)

var namePattern = regexp.MustCompile(`(?i)soy\s+([\p{L}\p{N}_]+)|me\s+llamo\s+([\p{L}\p{N}_]+)|mi\s+nombre\s+es\s+([\p{L}\p{N}_]+)`)

// Candidate is an amount detected in a message together with its label
// (income source or expense category).
type Candidate struct {
	Amount float64
	Label  string
}

type Facts struct {
	Name     string
	Income   []Candidate
	Expenses []Candidate
}

func (f Facts) Empty() bool {
	return f.Name == "" && len(f.Income) == 0 && len(f.Expenses) == 0
}

// HasAmounts reports whether any income or expense candidate was found.
func (f Facts) HasAmounts() bool {
	return len(f.Income) > 0 || len(f.Expenses) > 0
}

// DetectFacts scans one client message. A message can produce both income and
// expense candidates when it carries keywords of both kinds.
func DetectFacts(text string) Facts {
	lower := strings.ToLower(text)

	facts := Facts{Name: DetectName(text)}
	if containsAny(lower, incomeKeywords) {
		facts.Income = candidates(text, labelFor(lower, incomeSources))
	}
	if containsAny(lower, expenseKeywords) {
		facts.Expenses = candidates(text, labelFor(lower, expenseCategories))
	}
	return facts
}

// DetectName returns the first self-introduced name, or "" when none.
func DetectName(text string) string {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// IncomeSource maps a message to its income label.
func IncomeSource(text string) string {
	return labelFor(strings.ToLower(text), incomeSources)
}

// ExpenseCategory maps a message to its expense label.
func ExpenseCategory(text string) string {
	return labelFor(strings.ToLower(text), expenseCategories)
}

func candidates(text, label string) []Candidate {
	amounts := ExtractAmounts(text)
	if len(amounts) == 0 {
		return nil
	}
	out := make([]Candidate, 0, len(amounts))
	for _, amount := range amounts {
		out = append(out, Candidate{Amount: amount, Label: label})
	}
	return out
}

func labelFor(lower string, rules []labelRule) string {
	for _, rule := range rules {
		if strings.Contains(lower, rule.keyword) {
			return rule.label
		}
	}
	return contractx.LabelUnspecified
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
