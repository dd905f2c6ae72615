package main

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelnotes/reelnotes-server/internal/client"
)

const noteCloseTimeout = 15 * time.Second

func newNoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "note <movie-id> [text]",
		Short: "Set the note on a favorite",
		Long: `Set the note on a favorite.

With text, the note is saved once. Without it, each line read from stdin
replaces the note text, and the latest line is saved after a quiet period,
the way the note field autosaves while typing. An empty line clears the note.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, err := parseExternalID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			api, err := ctx.api()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			autosave := client.NewNoteAutosave(api, externalID, client.AutosaveOptions{
				Debounce: cfg.Client.NoteDebounce,
				Logger:   ctx.logger(),
				OnCommit: func(text string) {
					fmt.Fprintf(out, "saved: %q\n", text)
				},
				OnError: func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "save failed: %v\n", explain(err))
				},
			})

			if len(args) == 2 {
				if err := autosave.Edit(args[1]); err != nil {
					return err
				}
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					if err := autosave.Edit(scanner.Text()); err != nil {
						return err
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			closeCtx, cancel := context.WithTimeout(cmd.Context(), noteCloseTimeout)
			defer cancel()
			return explain(autosave.Close(closeCtx))
		},
	}
}
