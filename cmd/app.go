package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Finance-Simulator/agent/agents/advisor"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/agents/client"
	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/driver"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/events"
	llmx "github.com/tanpawarit/Chative-Finance-Simulator/agent/llm"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/memory"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/persona"
	statex "github.com/tanpawarit/Chative-Finance-Simulator/agent/state"
	configx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/config"
)

type AppConfig struct {
	StoreBackend       string        `split_words:"true" default:"file"`
	DataDir            string        `split_words:"true" default:"data"`
	MaxContextMessages int           `split_words:"true" default:"10"`
	RetentionFactor    int           `split_words:"true" default:"2"`
	SaveDelay          time.Duration `split_words:"true" default:"2s"`
	ClientDelay        time.Duration `split_words:"true" default:"1s"`
	ReplyDelay         time.Duration `split_words:"true" default:"1500ms"`
	Seed               uint64        `split_words:"true" default:"0"`
	LogDebug           bool          `split_words:"true" default:"false"`
	LogPretty          bool          `split_words:"true" default:"false"`
	HTTPAddr           string        `envconfig:"HTTP_ADDR" default:":8080"`
	AllowedOrigin      string        `split_words:"true" default:"*"`
}

// openMemory loads the conversation memory from the configured backend.
func openMemory(ctx context.Context, cfg *AppConfig) (*memory.Memory, func() error, error) {
	opts := statex.OpenOptions{
		Backend: statex.Backend(cfg.StoreBackend),
		DataDir: cfg.DataDir,
	}
	switch opts.Backend {
	case statex.BackendSQLite, statex.BackendPostgres:
		sqlCfg, err := configx.New[statex.SQLConfig]("DATABASE")
		if err != nil {
			return nil, nil, fmt.Errorf("load database config: %w", err)
		}
		opts.SQL = *sqlCfg
	case statex.BackendUpstash:
		upCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH")
		if err != nil {
			return nil, nil, fmt.Errorf("load upstash config: %w", err)
		}
		opts.Upstash = *upCfg
	}

	store, closeStore, err := statex.Open(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	mem := memory.New(store,
		memory.WithMaxContext(cfg.MaxContextMessages),
		memory.WithRetention(cfg.RetentionFactor),
		memory.WithSaveDelay(cfg.SaveDelay),
	)
	mem.Load(ctx)

	return mem, closeStore, nil
}

// simulation is everything one driver needs, plus the cleanup for it.
type simulation struct {
	memory  *memory.Memory
	queue   *events.Queue
	sink    *statsTee
	advisor *advisor.Service
	driver  *driver.Driver

	closers []func() error
}

type simulationOptions struct {
	seed     uint64
	fast     bool
	analysis bool
}

func newSimulation(ctx context.Context, cfg *AppConfig, opts simulationOptions) (*simulation, error) {
	sim := &simulation{queue: events.NewQueue()}
	sim.sink = &statsTee{next: sim.queue}

	mem, closeStore, err := openMemory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sim.memory = mem
	sim.closers = append(sim.closers, closeStore)

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		sim.Close(ctx)
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	clientGen, err := llmx.NewGenerator(ctx, *llmCfg, llmx.RoleClient)
	if err != nil {
		sim.Close(ctx)
		return nil, fmt.Errorf("client generator: %w", err)
	}
	sim.track(clientGen)
	advisorGen, err := llmx.NewGenerator(ctx, *llmCfg, llmx.RoleAdvisor)
	if err != nil {
		sim.Close(ctx)
		return nil, fmt.Errorf("advisor generator: %w", err)
	}
	sim.track(advisorGen)

	seed := opts.seed
	if seed == 0 {
		seed = cfg.Seed
	}
	rng := persona.NewRand(seed)
	personas := persona.NewGenerator(rng)

	sim.advisor, err = advisor.New(mem, advisorGen, advisor.WithRand(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))))
	if err != nil {
		sim.Close(ctx)
		return nil, err
	}

	clientDelay, replyDelay := cfg.ClientDelay, cfg.ReplyDelay
	if opts.fast {
		clientDelay, replyDelay = 0, 0
	}

	sim.driver, err = driver.New(driver.Deps{
		Store:    mem,
		Sink:     sim.sink,
		Advisor:  sim.advisor,
		Personas: personas,
		NewClient: func(p contractx.Persona) contractx.ClientSimulator {
			return client.New(clientGen, p, rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
		},
	}, driver.WithDelays(clientDelay, replyDelay))
	if err != nil {
		sim.Close(ctx)
		return nil, err
	}

	log.Info().
		Bool("client_remote", clientGen != nil).
		Bool("advisor_remote", advisorGen != nil).
		Str("store", cfg.StoreBackend).
		Msg("simulation ready")
	return sim, nil
}

func (s *simulation) track(gen contractx.TextGenerator) {
	if c, ok := gen.(io.Closer); ok {
		s.closers = append(s.closers, c.Close)
	}
}

// Close flushes memory and releases every backend.
func (s *simulation) Close(ctx context.Context) error {
	var errs []error
	if s.memory != nil {
		errs = append(errs, s.memory.Close(ctx))
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.queue.Close()
	return errors.Join(errs...)
}

// statsTee forwards events and keeps the last stats summary for publishing.
type statsTee struct {
	next contractx.EventSink

	mu   sync.Mutex
	last *contractx.Stats
}

func (t *statsTee) Publish(ev contractx.Event) {
	if ev.Kind == contractx.EventStats && ev.Stats != nil {
		t.mu.Lock()
		s := *ev.Stats
		t.last = &s
		t.mu.Unlock()
	}
	t.next.Publish(ev)
}

func (t *statsTee) Last() (contractx.Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return contractx.Stats{}, false
	}
	return *t.last, true
}
