package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"castos/internal/daemonrun"
	"castos/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction result cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached extraction result",
		Long:  "Remove every cached extraction result. Stop the daemon first when the cache is persistent; the cache directory is locked while it runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Cache.Enabled {
				fmt.Fprintln(out, "Result cache is disabled")
				return nil
			}
			if cfg.Cache.InMemory {
				fmt.Fprintln(out, "Result cache is in memory; nothing to clear")
				return nil
			}
			components, err := daemonrun.NewComponents(cfg, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open result cache: %w", err)
			}
			defer components.Close()
			if !components.Persistent() {
				return fmt.Errorf("result cache at %s is locked by another process; stop castosd first", cfg.Cache.Dir)
			}

			removed, err := components.ClearCache()
			if err != nil {
				return fmt.Errorf("clear result cache: %w", err)
			}
			fmt.Fprintf(out, "Removed %d cached entries from %s\n", removed, cfg.Cache.Dir)
			return nil
		},
	})

	return cacheCmd
}
