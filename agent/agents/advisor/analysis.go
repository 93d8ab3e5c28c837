package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

const (
	analysisMaxTokens = 1200
	analysisSystem    = "Eres SofIA, asesora financiera experta. Genera análisis financieros personalizados e inteligentes con información actualizada del mercado."
)

var analysisSearchDomains = []string{
	"investopedia.com",
	"bankrate.com",
	"nerdwallet.com",
	"yahoo.com/finance",
	"bloomberg.com",
}

// FinancialAnalysis writes SofIA's closing analysis of everything recorded for
// userID. Without a generator, or when the call fails, it returns a short
// local verdict on the balance instead.
func (s *Service) FinancialAnalysis(ctx context.Context, userID string) string {
	profile := s.store.GetUserProfile(userID)
	summary := s.FinancialSummary(userID)
	if s.gen == nil {
		return BasicAnalysis(summary, profile.Name)
	}

	text, err := s.gen.Generate(ctx, contractx.GenerateRequest{
		SystemPrompt: analysisSystem,
		UserPrompt:   analysisPrompt(summary, profile),
		MaxTokens:    analysisMaxTokens,
		Search: &contractx.SearchOptions{
			ContextSize:  "high",
			DomainFilter: append([]string(nil), analysisSearchDomains...),
		},
	})
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = contractx.ErrEmptyCompletion
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("financial analysis failed, using basic analysis")
		return BasicAnalysis(summary, profile.Name)
	}
	return text
}

// BasicAnalysis comments on the sign of the balance.
func BasicAnalysis(summary FinancialSummary, name string) string {
	balance := decimal.NewFromFloat(summary.Balance)
	switch balance.Sign() {
	case 1:
		return fmt.Sprintf("¡Excelente %s! 🎉 Tienes un balance positivo de S/%s. Con IA avanzada podría darte consejos específicos de inversión basados en condiciones actuales del mercado 📈",
			name, balance.StringFixed(2))
	case 0:
		return fmt.Sprintf("%s, estás equilibrado 👍 Tus ingresos y gastos están parejos. Con mi IA completa podría analizar el mercado y sugerir estrategias específicas de ahorro 💪",
			name)
	default:
		return fmt.Sprintf("%s, veo que tus gastos superan tus ingresos por S/%s 🤔 Con IA avanzada podría buscar estrategias actuales de optimización financiera específicas para tu situación",
			name, balance.Abs().StringFixed(2))
	}
}

func analysisPrompt(summary FinancialSummary, profile contractx.UserProfile) string {
	name := profile.Name
	if name == "" {
		name = "este usuario"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Como SofIA, analiza inteligentemente la situación financiera de %s y proporciona consejos específicos:\n\n", name)
	b.WriteString("DATOS FINANCIEROS COMPLETOS:\n")
	fmt.Fprintf(&b, "- Ingresos totales: S/%s\n", decimal.NewFromFloat(summary.TotalIncome).StringFixed(2))
	fmt.Fprintf(&b, "- Gastos totales: S/%s\n", decimal.NewFromFloat(summary.TotalExpenses).StringFixed(2))
	fmt.Fprintf(&b, "- Balance actual: S/%s\n", decimal.NewFromFloat(summary.Balance).StringFixed(2))
	fmt.Fprintf(&b, "- Transacciones de ingresos: %d\n", summary.IncomeCount)
	fmt.Fprintf(&b, "- Transacciones de gastos: %d\n\n", summary.ExpenseCount)
	b.WriteString("HISTORIAL DETALLADO:\n")
	b.WriteString(formatTransactions(profile.FinancialData))
	b.WriteString(`

INSTRUCCIONES PARA ANÁLISIS INTELIGENTE:
1. Busca información financiera actualizada relevante (tasas, inflación, etc.)
2. Analiza patrones específicos en sus transacciones
3. Da consejos personalizados basados en su situación real
4. Sugiere optimizaciones específicas y realizables
5. Menciona oportunidades de ahorro o inversión apropiadas
6. Mantén el tono amigable pero profesional de SofIA
7. Incluye emojis naturalmente
8. Termina con una pregunta específica de seguimiento

Genera un análisis conversacional completo, no un reporte técnico.`)
	return b.String()
}

func formatTransactions(fd contractx.FinancialData) string {
	var b strings.Builder
	if len(fd.Income) > 0 {
		b.WriteString("📈 INGRESOS REGISTRADOS:\n")
		for i, tx := range fd.Income {
			fmt.Fprintf(&b, "%d. %s%s - %s (%s)\n", i+1, currencySymbol(tx.Currency),
				decimal.NewFromFloat(tx.Amount).StringFixed(2), tx.Label, tx.Date.Format("2006-01-02"))
		}
	}
	if len(fd.Expenses) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("📉 GASTOS REGISTRADOS:\n")
		for i, tx := range fd.Expenses {
			fmt.Fprintf(&b, "%d. %s%s - %s (%s)\n", i+1, currencySymbol(tx.Currency),
				decimal.NewFromFloat(tx.Amount).StringFixed(2), tx.Label, tx.Date.Format("2006-01-02"))
		}
	}
	if b.Len() == 0 {
		return "No hay transacciones registradas aún."
	}
	return strings.TrimRight(b.String(), "\n")
}

func currencySymbol(currency string) string {
	switch currency {
	case "dolares", "pesos":
		return "$"
	default:
		return "S/"
	}
}
