package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

var (
	//go:embed template/client_system.txt
	clientSystemRaw string

	//go:embed template/advisor_system.txt
	advisorSystemRaw string
)

// PromptSet holds the parsed system prompt templates.
type PromptSet struct {
	clientSystem  *template.Template
	advisorSystem *template.Template
}

// ClientSystemData fills the synthetic client's system prompt.
type ClientSystemData struct {
	contractx.Persona
	Objective string
}

type AdvisorSystemData struct {
	UserName          string
	TotalInteractions int
	HasFinancialData  bool
}

// LoadPromptSet parses the embedded templates. It panics on a malformed
// template since they are compiled into the binary.
func LoadPromptSet() PromptSet {
	return PromptSet{
		clientSystem:  template.Must(template.New("client_system").Parse(strings.TrimSpace(clientSystemRaw))),
		advisorSystem: template.Must(template.New("advisor_system").Parse(strings.TrimSpace(advisorSystemRaw))),
	}
}

func (p PromptSet) ClientSystem(data ClientSystemData) (string, error) {
	return render(p.clientSystem, data)
}

func (p PromptSet) AdvisorSystem(data AdvisorSystemData) (string, error) {
	return render(p.advisorSystem, data)
}

func render(t *template.Template, data any) (string, error) {
	if t == nil {
		return "", fmt.Errorf("%w: prompt set not loaded", contractx.ErrValidation)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

var intentDescriptions = map[contractx.Intent]string{
	contractx.IntentGreeting:          "Salúdate y dile tu nombre de forma natural",
	contractx.IntentIncomeReport:      "Menciona cuánto ganaste recientemente (trabajo, freelance, etc.)",
	contractx.IntentExpenseReport:     "Comenta sobre gastos que tuviste (compras, servicios, etc.)",
	contractx.IntentFinancialQuestion: "Haz una pregunta sobre finanzas personales o inversiones",
	contractx.IntentGoalSetting:       "Menciona una meta financiera que tienes",
	contractx.IntentAdviceRequest:     "Pide consejo específico sobre tu situación financiera",
	contractx.IntentFollowUp:          "Comenta sobre algo que te dijo SofIA o pide más detalles",
	contractx.IntentFarewell:          "Despídete de forma natural y agradece",
}

// IntentDescription is the objective line given to the client for intent.
func IntentDescription(intent contractx.Intent) string {
	if d, ok := intentDescriptions[intent]; ok {
		return d
	}
	return "Continúa la conversación naturalmente"
}
