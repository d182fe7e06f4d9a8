// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"bpipe-cli/internal/history"
	"bpipe-cli/internal/issue"

	"github.com/spf13/cobra"
)

// newRetryCommand re-issues a recorded invocation. The selected history
// entry is re-tokenized and dispatched through a fresh root command, so a
// replayed run is indistinguishable from typing the original line again.
func newRetryCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [test] [run id]",
		Short: "Re-issue a previously recorded invocation",
		Long: `Re-issue a previously recorded invocation.

With no arguments, the most recent entry is replayed. A run id selects a
specific entry (the newest one when ids repeat). The word test previews
the replay in test mode instead of executing it.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := history.ParseRetryArgs(args)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			mode, argv, err := app.History.ResolveRetry(req)
			if err != nil {
				var malformed *history.MalformedEntryError
				switch {
				case errors.As(err, &malformed):
					return issue.Wrap(err, "replay history entry").
						WithResource(app.History.Path).
						AsInternal()
				case errors.Is(err, history.ErrNoHistory):
					return &ExitError{Code: 1, Err: err}
				default:
					return err
				}
			}

			fmt.Fprintln(app.stdout, SubtitleStyle.Render("Replaying:")+" bpipe "+mode+" "+strings.Join(argv, " "))

			// The replayed line is recorded under this run's id, so a later
			// retry of the retry resolves to the same underlying command.
			app.SetInvocation(mode, argv)

			replay := newRootCmd(app)
			replay.SetArgs(append([]string{mode}, argv...))
			replay.SetOut(app.stdout)
			replay.SetErr(app.stderr)
			replay.SetContext(cmd.Context())
			return replay.Execute()
		},
	}
}
