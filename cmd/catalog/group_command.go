package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/store"
)

func newGroupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage object groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newGroupCreateCommand(ctx))
	cmd.AddCommand(newGroupAddCommand(ctx))
	cmd.AddCommand(newGroupLsCommand(ctx))
	return cmd
}

func newGroupCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				group, err := st.CreateGroup(args[0], description, tags)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created group %s (%s)\n", group.Name, shortID(group.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Group description")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag carried by the group (repeatable)")
	return cmd
}

func newGroupAddCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <group> <id>...",
		Short: "Add objects to a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				group, err := resolveGroup(st, args[0])
				if err != nil {
					return err
				}
				ids, err := resolveObjects(st, args[1:])
				if err != nil {
					return err
				}
				if err := st.AddToGroup(group.ID, ids...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d object(s) to %s\n", len(ids), group.Name)
				return nil
			})
		},
	}
	return cmd
}

func newGroupLsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				groups := st.Groups()
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no groups")
					return nil
				}
				rows := make([][]string, 0, len(groups))
				for _, group := range groups {
					members := len(st.List(store.ListFilter{GroupID: group.ID}))
					rows = append(rows, []string{
						shortID(group.ID),
						group.Name,
						truncate(group.Description, 40),
						strings.Join(group.Tags, ","),
						fmt.Sprintf("%d", members),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "NAME", "DESCRIPTION", "TAGS", "OBJECTS"}, rows))
				return nil
			})
		},
	}
	return cmd
}
