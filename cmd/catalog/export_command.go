package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/export"
	"catalog/internal/lifecycle"
	"catalog/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>...",
		Short: "Write Markdown documents for transcribed objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				exporter := export.NewMarkdown(cfg, logger)
				manager := lifecycle.NewManager(st, nil, nil, exporter, cfg.Workflow, logger)

				ids, err := resolveObjects(st, args)
				if err != nil {
					return err
				}
				for _, id := range ids {
					path, err := manager.Export(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", shortID(id), path)
				}
				return nil
			})
		},
	}
	return cmd
}
