package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/media"
	"catalog/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var variantFlag string
	var full bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one object and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				object, err := resolveObject(st, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %s\n", object.ID)
				fmt.Fprintf(out, "Title:   %s\n", object.Title)
				fmt.Fprintf(out, "Type:    %s\n", object.Type)
				fmt.Fprintf(out, "State:   %s\n", object.State)
				if object.Error != "" {
					fmt.Fprintf(out, "Error:   %s\n", object.Error)
				}
				if len(object.Tags) > 0 {
					fmt.Fprintf(out, "Tags:    %s\n", strings.Join(object.Tags, ", "))
				}
				fmt.Fprintf(out, "Source:  %s\n", object.SourcePath)
				fmt.Fprintf(out, "Stored:  %s\n", object.StoredPath)
				fmt.Fprintf(out, "Created: %s\n", object.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Updated: %s\n", object.UpdatedAt.Local().Format(time.DateTime))

				entries, err := st.Entries(object.ID)
				if err != nil || len(entries) == 0 {
					return err
				}

				selected := media.BestEntry(entries)
				if variantFlag != "" {
					variant, ok := media.ParseVariant(variantFlag)
					if !ok {
						return fmt.Errorf("unknown variant %q", variantFlag)
					}
					entry, err := st.GetEntry(object.ID, variant)
					if err != nil {
						return err
					}
					selected = entry
				}

				var variants []string
				for _, entry := range entries {
					variants = append(variants, string(entry.Variant))
				}
				fmt.Fprintf(out, "Entries: %s\n\n", strings.Join(variants, ", "))

				text := selected.Text
				if !full && len(text) > 2000 {
					text = text[:2000] + "\n... (pass --full for the rest)"
				}
				fmt.Fprintf(out, "--- %s ---\n%s\n", selected.Variant, text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&variantFlag, "variant", "", "Entry variant to print: raw, formatted, processed")
	cmd.Flags().BoolVar(&full, "full", false, "Print the entire transcript")
	return cmd
}
