package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"catalog/internal/logging"
	"catalog/internal/media"
)

func newRmCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove objects, their entries, and cached vectors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueryEnv(func(env *queryEnv) error {
				// Entry removals flow into the embeddings cache so no
				// orphaned vectors survive the object.
				env.store.SetEntryObserver(func(entry media.Entry, removed bool) {
					if removed {
						if err := env.cache.Invalidate(entry.ID); err != nil {
							env.logger.Warn("failed to drop cached vector",
								logging.String(logging.FieldEntryID, entry.ID),
								logging.Error(err))
						}
					}
				})

				ids, err := resolveObjects(env.store, args)
				if err != nil {
					return err
				}
				for _, id := range ids {
					if err := env.store.Remove(id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", shortID(id))
				}
				return nil
			})
		},
	}
	return cmd
}
