package cmd

import (
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/config"
	logx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/logger"
)

var Version = "dev"

func NewRootCmd() *cobra.Command {
	var (
		envFile string
		debug   bool
		cfg     AppConfig
	)

	rootCmd := &cobra.Command{
		Use:   "fincoach",
		Short: "Simulated clients chatting with a personal finance advisor",
		Long: `fincoach runs scripted conversations between a generated client persona and
SofIA, a personal finance advisor, recording the income and expenses the client
mentions along the way.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
			loaded, err := configx.New[AppConfig]("FINCOACH")
			if err != nil {
				return err
			}
			cfg = *loaded

			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logCfg.Debug = logCfg.Debug || cfg.LogDebug || debug
			logCfg.PrettyFormat = logCfg.PrettyFormat || cfg.LogPretty
			logx.Init(*logCfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newSimulateCmd(&cfg))
	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newMemoryCmd(&cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
