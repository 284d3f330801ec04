package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/store"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var add []string
	var remove []string

	cmd := &cobra.Command{
		Use:   "tag <id>...",
		Short: "Add or remove tags on objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(add) == 0 && len(remove) == 0 {
				return fmt.Errorf("pass --add and/or --remove")
			}
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				ids, err := resolveObjects(st, args)
				if err != nil {
					return err
				}
				for _, id := range ids {
					object, err := st.UpdateTags(id, add, remove)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", shortID(object.ID), strings.Join(object.Tags, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&add, "add", nil, "Tag to add (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Tag to remove (repeatable)")
	return cmd
}
