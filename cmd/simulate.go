package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Finance-Simulator/agent/render"
	configx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/config"
	qstashx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/qstash"
)

const flushTimeout = 10 * time.Second

func newSimulateCmd(cfg *AppConfig) *cobra.Command {
	var (
		seed        uint64
		fast        bool
		interactive bool
		publish     bool
		analysis    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulated conversation in the terminal",
		Long: `Generate a client persona and walk it through the eight-step plan against
SofIA, printing every message. Without API keys both sides answer with local
text, so the run works offline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulate(ctx, cmd, cfg, simulationOptions{seed: seed, fast: fast, analysis: analysis}, interactive, publish)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for persona and fallback text (0 = time based)")
	cmd.Flags().BoolVar(&fast, "fast", false, "skip the pacing delays between messages")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "control the run with pause/resume/stop/reset prompts")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the final stats through QStash")
	cmd.Flags().BoolVar(&analysis, "analysis", false, "print SofIA's financial analysis after a finished run")

	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, cfg *AppConfig, opts simulationOptions, interactive, publish bool) error {
	var publisher *qstashx.Client
	var destination string
	if publish {
		qCfg, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			return fmt.Errorf("load qstash config: %w", err)
		}
		if publisher, err = qstashx.NewClient(*qCfg); err != nil {
			return err
		}
		if destination = strings.TrimSpace(qCfg.Destination); destination == "" {
			return errors.New("QSTASH_DESTINATION is required with --publish")
		}
	}

	sim, err := newSimulation(ctx, cfg, opts)
	if err != nil {
		return err
	}

	printed := make(chan error, 1)
	go func() {
		printed <- render.NewPrinter(cmd.OutOrStdout()).Drain(ctx, sim.queue)
	}()

	var runErr error
	if interactive {
		runErr = controlLoop(ctx, sim)
	} else {
		runErr = sim.driver.Start(ctx)
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	// Generators are released by Close, so the analysis is written first.
	var analysis string
	if _, finished := sim.sink.Last(); finished && opts.analysis {
		analysis = sim.advisor.FinancialAnalysis(flushCtx, sim.driver.UserID())
	}

	if err := sim.Close(flushCtx); err != nil {
		log.Warn().Err(err).Msg("memory flush failed")
	}
	if err := <-printed; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("printing events failed")
	}
	if analysis != "" {
		fmt.Fprintln(cmd.OutOrStdout(), render.Analysis(analysis))
	}

	summary := sim.advisor.FinancialSummary(sim.driver.UserID())
	log.Info().
		Str("user_id", sim.driver.UserID()).
		Float64("income", summary.TotalIncome).
		Float64("expenses", summary.TotalExpenses).
		Float64("balance", summary.Balance).
		Msg("run finished")

	if publisher != nil {
		if stats, ok := sim.sink.Last(); ok {
			id, err := publisher.Publish(flushCtx, destination, map[string]any{
				"user_id": sim.driver.UserID(),
				"persona": sim.driver.Persona(),
				"stats":   stats,
			})
			if err != nil {
				return err
			}
			log.Info().Str("message_id", id).Msg("stats published")
		} else {
			log.Info().Msg("run ended without stats, nothing to publish")
		}
	}

	return runErr
}

const (
	actionPause  = "Pausar"
	actionResume = "Reanudar"
	actionStop   = "Detener"
	actionReset  = "Reiniciar"
	actionStart  = "Iniciar"
	actionQuit   = "Salir"
)

// controlLoop runs the driver in the background and offers the control
// actions until the user quits or the run finishes.
func controlLoop(ctx context.Context, sim *simulation) error {
	done := make(chan error, 1)
	run := func(f func(context.Context) error) {
		go func() { done <- f(ctx) }()
	}
	running := 1
	run(sim.driver.Start)

	for {
		st := sim.driver.State()
		var options []string
		switch {
		case st.IsActive && st.IsPaused:
			options = []string{actionResume, actionStop, actionReset, actionQuit}
		case st.IsActive:
			options = []string{actionPause, actionStop, actionReset, actionQuit}
		default:
			options = []string{actionStart, actionReset, actionQuit}
		}

		var choice string
		err := survey.AskOne(&survey.Select{
			Message: fmt.Sprintf("Paso %d/%d", st.CurrentStep, st.TotalSteps),
			Options: options,
		}, &choice)
		if errors.Is(err, terminal.InterruptErr) {
			choice = actionQuit
		} else if err != nil {
			return err
		}

		switch choice {
		case actionPause:
			sim.driver.Pause()
		case actionResume:
			running++
			run(sim.driver.Resume)
		case actionStop:
			sim.driver.Stop()
		case actionReset:
			sim.driver.Reset()
		case actionStart:
			running++
			run(sim.driver.Start)
		case actionQuit:
			sim.driver.Stop()
			var firstErr error
			for ; running > 0; running-- {
				if err := <-done; err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		}
		if ctx.Err() != nil {
			sim.driver.Stop()
			return ctx.Err()
		}
	}
}
