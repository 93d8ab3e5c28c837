package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/events"
)

const width = 72

var (
	clientStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			PaddingLeft(2)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(0, 1).
			Width(width)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	statsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(1, 2).
			Width(width)

	labelStyle  = lipgloss.NewStyle().Bold(true)
	incomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	spendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Event formats one simulator event for the terminal.
func Event(ev contractx.Event) string {
	switch ev.Kind {
	case contractx.EventMessage:
		if ev.Message == nil {
			return ""
		}
		return Message(*ev.Message)
	case contractx.EventStats:
		if ev.Stats == nil {
			return ""
		}
		return Stats(*ev.Stats)
	default:
		return ""
	}
}

func Message(msg contractx.ChatMessage) string {
	stamp := msg.Timestamp.Local().Format("15:04:05")
	if msg.Type == contractx.MessageSystem {
		style := systemStyle
		if msg.Sender == contractx.SenderAgent {
			style = errorStyle
		}
		return style.Render(fmt.Sprintf("[%s] %s", stamp, msg.Content))
	}

	if msg.Sender == contractx.SenderAgent {
		return agentStyle.Render(fmt.Sprintf("SofIA · %s\n%s", stamp, msg.Content))
	}
	return clientStyle.Render(fmt.Sprintf("Cliente · %s\n%s", stamp, msg.Content))
}

func Stats(s contractx.Stats) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("📊 Resumen de la conversación"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Ingresos detectados:"), s.IncomeCount)
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Gastos detectados:"), s.ExpenseCount)
	name := "no"
	if s.NameDetected {
		name = "sí"
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Nombre detectado:"), name)

	if len(s.Transactions) > 0 {
		b.WriteString("\n")
		for _, tx := range s.Transactions {
			line := fmt.Sprintf("%-8s S/%s  %s", tx.Type, money(tx.Amount), tx.Label)
			if tx.Type == contractx.TransactionIncome {
				b.WriteString(incomeStyle.Render("+ " + line))
			} else {
				b.WriteString(spendStyle.Render("- " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s S/%s\n", labelStyle.Render("Total ingresos:"), money(s.TotalIncome))
	fmt.Fprintf(&b, "%s S/%s\n", labelStyle.Render("Total gastos:"), money(s.TotalExpenses))
	fmt.Fprintf(&b, "%s S/%s", labelStyle.Render("Balance:"), money(s.Balance))

	return statsStyle.Render(b.String())
}

// Analysis frames SofIA's closing analysis below the stats box.
func Analysis(text string) string {
	return agentStyle.Render("SofIA · Análisis financiero\n" + text)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Printer writes rendered events to w as they are pulled from a queue.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Print(ev contractx.Event) error {
	out := Event(ev)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.w, out)
	return err
}

// Drain prints events from q until it is closed and empty or ctx is done.
// A closed queue is a normal end and returns nil.
func (p *Printer) Drain(ctx context.Context, q *events.Queue) error {
	for {
		ev, err := q.Next(ctx)
		if err != nil {
			if errors.Is(err, events.ErrClosed) {
				return nil
			}
			return err
		}
		if err := p.Print(ev); err != nil {
			return err
		}
	}
}
