package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"catalog/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var modeFlags []string
	var tags []string
	var groupFlag string
	var limit int
	var sync bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search transcripts by keyword, fuzzy, and vector similarity",
		Long: `Search ranks transcript entries against the query. By default every
available mode contributes equally; pass --mode to restrict the modes.
Vector mode needs a running Ollama server with the configured
embedding model.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueryEnv(func(env *queryEnv) error {
				var modes []search.Mode
				for _, flag := range modeFlags {
					for _, part := range strings.Split(flag, ",") {
						mode, ok := search.ParseMode(part)
						if !ok {
							return fmt.Errorf("unknown mode %q", part)
						}
						modes = append(modes, mode)
					}
				}

				groupID := ""
				if groupFlag != "" {
					group, ok := env.index.Group(groupFlag)
					if !ok {
						return fmt.Errorf("group %q not found", groupFlag)
					}
					groupID = group.ID
				}

				if sync {
					snapshot := env.store.Snapshot()
					if _, err := env.cache.Reconcile(cmd.Context(), snapshot.Entries); err != nil {
						return err
					}
				}

				engine := search.NewEngine(env.index, env.cache, env.embedder, env.cfg.Search, env.logger)
				results, err := engine.TopK(cmd.Context(), search.Request{
					Query:   strings.Join(args, " "),
					Modes:   modes,
					Tags:    tags,
					GroupID: groupID,
					Limit:   limit,
				})
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no matches")
					return nil
				}

				rows := make([][]string, 0, len(results))
				for _, result := range results {
					rows = append(rows, []string{
						strconv.FormatFloat(result.Score, 'f', 3, 64),
						shortID(result.Object.ID),
						truncate(result.Object.Title, 36),
						string(result.Entry.Variant),
						formatModeScores(result.ModeScores),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"SCORE", "ID", "TITLE", "VARIANT", "MODES"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&modeFlags, "mode", nil, "Search mode: keyword, fuzzy, vector (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Restrict to objects carrying the tag (repeatable)")
	cmd.Flags().StringVar(&groupFlag, "group", "", "Restrict to one group (name or ID)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")
	cmd.Flags().BoolVar(&sync, "sync", false, "Reconcile the embeddings cache before searching")
	return cmd
}

func formatModeScores(scores map[search.Mode]float64) string {
	parts := make([]string, 0, len(scores))
	for _, mode := range search.AllModes {
		if score, ok := scores[mode]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.2f", mode, score))
		}
	}
	return strings.Join(parts, " ")
}
