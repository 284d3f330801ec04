package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/lifecycle"
	"catalog/internal/services/llm"
	"catalog/internal/store"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <id>...",
		Short: "Polish transcripts with the configured LLM",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				client := llm.NewClient(cfg.LLM)
				if !client.Available() {
					return fmt.Errorf("llm api key is not configured, set [llm] api_key")
				}
				manager := lifecycle.NewManager(st, nil, client, nil, cfg.Workflow, logger)

				ids, err := resolveObjects(st, args)
				if err != nil {
					return err
				}

				outcomes := make([]lifecycle.Outcome, 0, len(ids))
				for _, id := range ids {
					outcome, err := manager.Process(cmd.Context(), id)
					if err != nil && outcome.Err == nil {
						outcome.Err = err
					}
					outcomes = append(outcomes, outcome)
				}
				printOutcomes(cmd, outcomes)
				return nil
			})
		},
	}
	return cmd
}
