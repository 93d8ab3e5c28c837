package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newMemoryCmd(cfg *AppConfig) *cobra.Command {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and maintain the stored conversations",
	}

	memoryCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show stored users and exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, closeStore, err := openMemory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			s := mem.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "usuarios:          %d\n", s.TotalUsers)
			fmt.Fprintf(out, "intercambios:      %d\n", s.TotalExchanges)
			fmt.Fprintf(out, "activos hoy:       %d\n", s.ActiveUsersToday)
			return nil
		},
	})

	var olderThan time.Duration
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop exchanges older than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, closeStore, err := openMemory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			removed, err := mem.CleanOldConversations(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "intercambios eliminados: %d\n", removed)
			return nil
		},
	}
	cleanCmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age threshold")
	memoryCmd.AddCommand(cleanCmd)

	memoryCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Rewrite both memory records to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, closeStore, err := openMemory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(cmd.Context(), flushTimeout)
			defer cancel()
			return mem.ForceSync(ctx)
		},
	})

	return memoryCmd
}
