package advisornode

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/extract"
)

const welcomeReply = "¡Hola! 👋 Soy SofIA, tu asesora financiera personal. Me da mucho gusto conocerte 😊 \n\n" +
	"Estoy aquí para ayudarte con tus finanzas de manera súper natural y práctica. " +
	"Para darte la mejor experiencia, necesito que mi desarrollador configure mi conexión avanzada de IA, " +
	"pero mientras tanto puedo ayudarte con lo básico.\n\n" +
	"¿Cómo te gusta que te llame? Y cuéntame, ¿en qué puedo ayudarte hoy? 💰"

var basicReplies = []string{
	"%s, entiendo perfectamente lo que me dices 🤗 Mi modo IA completa está en configuración, pero puedo ayudarte con tus finanzas básicas. ¿Qué necesitas hacer?",
	"Te escucho %s 😊 Aunque estoy en modo básico, sigamos trabajando en tus finanzas. ¿Tienes algún ingreso o gasto que registrar?",
	"Perfecto %s 💙 Mientras me configuran completamente, puedo ayudarte con lo esencial. ¿En qué te apoyo hoy?",
}

// FinalizeReply returns the remote reply when there is one and the canned
// local reply otherwise. pick chooses among the basic variants.
func FinalizeReply(ctx context.Context, in *GraphState, pick func(n int) int) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if reply := strings.TrimSpace(in.Reply); reply != "" {
		return GraphOutput{Reply: reply, Facts: in.Facts}, nil
	}

	reply := LocalReply(in, pick)
	if strings.TrimSpace(reply) == "" {
		return GraphOutput{}, fmt.Errorf("%w: empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, Facts: in.Facts, Local: true}, nil
}

// LocalReply is the answer given without a language model.
func LocalReply(in *GraphState, pick func(n int) int) string {
	if in.Context.TotalInteractions == 0 {
		return welcomeReply
	}

	if amounts := extractx.ExtractAmounts(in.Text); len(amounts) > 0 {
		detail := "Veo varios montos ahí"
		if len(amounts) == 1 {
			detail = "Son S/" + strconv.FormatFloat(amounts[0], 'f', -1, 64) + " ¿verdad?"
		}
		return fmt.Sprintf("¡Perfecto %s! 📝 He registrado esa información financiera. %s \n\n"+
			"¿Quieres que revisemos juntos cómo va tu situación financiera? 📊", in.Name, detail)
	}

	if pick == nil {
		pick = rand.IntN
	}
	return fmt.Sprintf(basicReplies[pick(len(basicReplies))], in.Name)
}
