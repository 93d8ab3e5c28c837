package persona

import (
	"math/rand/v2"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

const (
	MinAge   = 25
	ageRange = 30
)

var (
	names = []string{"María", "Carlos", "Ana", "José", "Carmen", "Luis", "Elena", "Diego", "Sofia", "Miguel"}

	professions = []string{
		"ingeniera de software", "médico", "profesora", "contador", "diseñadora gráfica",
		"vendedor", "enfermera", "abogado", "arquitecta", "freelancer",
	}

	personalities = []string{
		"cautelosa con el dinero", "impulsiva en compras", "muy organizada",
		"preocupada por el futuro", "optimista financiera", "práctica y directa",
	}

	situations = []string{
		"quiere empezar a ahorrar", "busca invertir por primera vez",
		"tiene deudas que controlar", "planea comprar casa",
		"quiere mejorar sus finanzas", "acaba de recibir aumento de sueldo",
	}
)

// Generator draws personas from fixed pools. It is not safe for concurrent
// use; each driver owns one.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator uses rng, or a time-seeded source when rng is nil.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = NewRand(0)
	}
	return &Generator{rng: rng}
}

// NewRand returns a deterministic source for seed, or a time-seeded one when
// seed is zero.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (g *Generator) Generate() contractx.Persona {
	return contractx.Persona{
		Name:               pick(g.rng, names),
		Age:                MinAge + g.rng.IntN(ageRange),
		Profession:         pick(g.rng, professions),
		Personality:        pick(g.rng, personalities),
		FinancialSituation: pick(g.rng, situations),
	}
}

// Rand exposes the generator's source so callers sharing a seed stay
// reproducible.
func (g *Generator) Rand() *rand.Rand {
	return g.rng
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}

// Names returns a copy of the name pool.
func Names() []string {
	return append([]string(nil), names...)
}
