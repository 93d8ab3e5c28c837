package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Finance-Simulator/agent/server"
)

func newServeCmd(cfg *AppConfig) *cobra.Command {
	var (
		addr string
		fast bool
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation control API and event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			return runServe(ctx, cfg, addr, simulationOptions{seed: seed, fast: fast})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to FINCOACH_HTTP_ADDR)")
	cmd.Flags().BoolVar(&fast, "fast", false, "skip the pacing delays between messages")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for persona and fallback text")

	return cmd
}

func runServe(ctx context.Context, cfg *AppConfig, addr string, opts simulationOptions) error {
	sim, err := newSimulation(ctx, cfg, opts)
	if err != nil {
		return err
	}

	hub := server.NewHub()
	go hub.Run(ctx, sim.queue.Subscribe(ctx))

	api := server.New(ctx, sim.driver, hub, cfg.AllowedOrigin)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			sim.Close(context.Background())
			return err
		}
	}

	sim.driver.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	api.Wait()

	if err := sim.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("memory flush failed")
	}
	log.Info().Msg("server stopped")
	return nil
}
