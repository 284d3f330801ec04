package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/lifecycle"
	"catalog/internal/media"
	"catalog/internal/services/whisperx"
	"catalog/internal/store"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "transcribe [id]...",
		Short: "Transcribe imported audio objects",
		Long: `Transcribe runs WhisperX over the given objects, or over every
audio object awaiting transcription when --all is set. Objects are
processed concurrently up to the configured limit; each object's
outcome is reported independently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("pass object IDs or --all")
			}
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				var ids []string
				var err error
				if all {
					for _, object := range st.List(store.ListFilter{
						States: []media.State{media.StateImported, media.StateTranscriptionFailed},
						Types:  []media.Type{media.TypeAudio},
					}) {
						ids = append(ids, object.ID)
					}
				} else {
					ids, err = resolveObjects(st, args)
					if err != nil {
						return err
					}
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to transcribe")
					return nil
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				transcriber := whisperx.NewService(cfg.Transcription)
				manager := lifecycle.NewManager(st, transcriber, nil, nil, cfg.Workflow, logger)
				outcomes := manager.TranscribeBatch(runCtx, ids)

				printOutcomes(cmd, outcomes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Transcribe every audio object awaiting transcription")
	return cmd
}

func printOutcomes(cmd *cobra.Command, outcomes []lifecycle.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		status := "ok"
		detail := ""
		switch {
		case outcome.Skipped:
			status = "skipped"
		case outcome.Err != nil:
			status = "failed"
			detail = truncate(outcome.Err.Error(), 60)
		}
		rows = append(rows, []string{
			shortID(outcome.ObjectID),
			truncate(outcome.Title, 30),
			status,
			string(outcome.State),
			detail,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "TITLE", "RESULT", "STATE", "DETAIL"}, rows))
}
