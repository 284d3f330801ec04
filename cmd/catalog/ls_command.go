package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/media"
	"catalog/internal/store"
)

func newLsCommand(ctx *commandContext) *cobra.Command {
	var stateFlag string
	var typeFlag string
	var tags []string
	var groupFlag string
	var sortFlag string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List catalog objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				filter := store.ListFilter{Tags: tags}
				if stateFlag != "" {
					state, ok := media.ParseState(stateFlag)
					if !ok {
						return fmt.Errorf("unknown state %q", stateFlag)
					}
					filter.States = []media.State{state}
				}
				if typeFlag != "" {
					filter.Types = []media.Type{media.ParseType(typeFlag)}
				}
				if groupFlag != "" {
					group, err := resolveGroup(st, groupFlag)
					if err != nil {
						return err
					}
					filter.GroupID = group.ID
				}

				objects := st.List(filter)
				switch sortFlag {
				case "", "updated":
				case "created":
					slices.SortFunc(objects, func(a, b media.Object) int {
						if !a.CreatedAt.Equal(b.CreatedAt) {
							if a.CreatedAt.After(b.CreatedAt) {
								return -1
							}
							return 1
						}
						return strings.Compare(a.ID, b.ID)
					})
				default:
					return fmt.Errorf("unknown sort key %q (use created or updated)", sortFlag)
				}
				if len(objects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no objects found")
					return nil
				}

				rows := make([][]string, 0, len(objects))
				for _, object := range objects {
					rows = append(rows, []string{
						shortID(object.ID),
						truncate(object.Title, 40),
						string(object.Type),
						string(object.State),
						strings.Join(object.Tags, ","),
						object.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "TITLE", "TYPE", "STATE", "TAGS", "UPDATED"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "Filter by lifecycle state")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by media type")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Filter by tag (repeatable, all must match)")
	cmd.Flags().StringVar(&groupFlag, "group", "", "Filter by group name or ID")
	cmd.Flags().StringVar(&sortFlag, "sort", "updated", "Sort by created or updated time")
	return cmd
}

func resolveGroup(st *store.Store, idOrName string) (*media.Group, error) {
	for _, group := range st.Groups() {
		if group.ID == idOrName || strings.EqualFold(group.Name, idOrName) {
			return &group, nil
		}
	}
	return nil, fmt.Errorf("group %q not found", idOrName)
}
