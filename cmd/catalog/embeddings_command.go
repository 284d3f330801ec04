package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEmbeddingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Manage the embeddings cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newEmbeddingsSyncCommand(ctx))
	return cmd
}

func newEmbeddingsSyncCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Recompute stale vectors and drop orphaned ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueryEnv(func(env *queryEnv) error {
				snapshot := env.store.Snapshot()
				report, err := env.cache.Reconcile(cmd.Context(), snapshot.Entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fresh %d, computed %d, dropped %d, failed %d\n",
					report.Fresh, report.Computed, report.Dropped, report.Failed)
				if report.Failed > 0 {
					return fmt.Errorf("%d of %d entries could not be embedded", report.Failed, len(snapshot.Entries))
				}
				return nil
			})
		},
	}
	return cmd
}
