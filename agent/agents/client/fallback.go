package client

import (
	"fmt"
	"math/rand/v2"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

const defaultFallback = "Continúo con la conversación"

// between returns an integer in [lo, hi).
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo)
}

// fallbackMessage returns a canned message for intent. Amounts are drawn
// fresh on every call.
func fallbackMessage(rng *rand.Rand, p contractx.Persona, intent contractx.Intent) string {
	var options []string
	switch intent {
	case contractx.IntentGreeting:
		options = []string{
			fmt.Sprintf("Hola! Soy %s, trabajo como %s", p.Name, p.Profession),
			fmt.Sprintf("Buenas! Me llamo %s", p.Name),
			fmt.Sprintf("Hola Sofia! Soy %s", p.Name),
		}
	case contractx.IntentIncomeReport:
		options = []string{
			fmt.Sprintf("Este mes me llegaron como %d soles del trabajo", between(rng, 2500, 4500)),
			fmt.Sprintf("Recibí mi sueldo de %d soles", between(rng, 3000, 5000)),
			fmt.Sprintf("Me pagaron %d soles esta semana", between(rng, 2800, 4300)),
		}
	case contractx.IntentExpenseReport:
		options = []string{
			fmt.Sprintf("Gasté como %d soles en el super esta semana", between(rng, 300, 800)),
			fmt.Sprintf("Se me fueron %d soles en comida este mes", between(rng, 400, 1200)),
			fmt.Sprintf("Pagué %d soles de luz y agua", between(rng, 150, 450)),
		}
	case contractx.IntentFinancialQuestion:
		options = []string{
			"¿Crees que es buen momento para invertir?",
			"¿Cuánto debería ahorrar al mes?",
			"¿Qué opinas de los bancos digitales?",
			"¿Es buena idea tener cuenta en dólares?",
		}
	case contractx.IntentGoalSetting:
		options = []string{
			"Quiero ahorrar para una casa",
			"Mi meta es juntar como 10 mil soles este año",
			"Quiero empezar a invertir en algo seguro",
			"Necesito un fondo de emergencia",
		}
	case contractx.IntentAdviceRequest:
		options = []string{
			"¿Qué me recomiendas para manejar mejor mi dinero?",
			"¿Cómo puedo reducir mis gastos?",
			"¿En qué banco me conviene ahorrar?",
			"¿Debería usar tarjeta de crédito?",
		}
	case contractx.IntentFollowUp:
		options = []string{
			"Interesante lo que me dices",
			"Eso no lo sabía",
			"¿Podrías explicarme más?",
			"Tiene sentido",
		}
	case contractx.IntentFarewell:
		options = []string{
			"Gracias por todo! Nos vemos",
			"Muchas gracias Sofia!",
			"Me ayudaste mucho, hasta la próxima!",
		}
	default:
		return defaultFallback
	}
	return options[rng.IntN(len(options))]
}
