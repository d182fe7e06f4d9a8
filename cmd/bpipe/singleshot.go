// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bpipe-cli/internal/config"
	"bpipe-cli/internal/engine"
	"bpipe-cli/internal/issue"

	"github.com/spf13/cobra"
)

// newHistoryCommand prints the recorded invocations, oldest first, exactly
// as they were written.
func newHistoryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recorded invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.History.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.stdout, "No command history.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(app.stdout, "%s\t%s\n", e.RunID, e.CommandLine)
			}
			return nil
		},
	}
}

// newLogCommand prints the combined output log of executed runs.
func newLogCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the combined output log of executed runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(engine.RunLogPath)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(app.stdout, "No run log found.")
					return nil
				}
				return issue.Wrap(err, "read run log").WithResource(engine.RunLogPath)
			}
			fmt.Fprint(app.stdout, string(data))
			return nil
		},
	}
}

// newJobsCommand lists the live runs.
func newJobsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List running pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.Jobs.List()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(app.stdout, "No running jobs.")
				return nil
			}
			for _, job := range jobs {
				fmt.Fprintf(app.stdout, "%s\tpid=%s\n", job.RunID, job.PID)
			}
			return nil
		},
	}
}

// newStopCommand stops one run by id, or the most recent run with no
// argument.
func newStopCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [run id]",
		Short: "Stop a running pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var runID string
			if len(args) == 1 {
				runID = args[0]
			} else {
				id, err := mostRecentRun(app)
				if err != nil {
					return err
				}
				if id == "" {
					return &ExitError{Code: 1, Err: fmt.Errorf("no running pipeline to stop")}
				}
				runID = id
			}

			stopped, err := app.Jobs.Stop(runID)
			if err != nil {
				return err
			}
			if !stopped {
				return &ExitError{Code: 1, Err: fmt.Errorf("no running pipeline with id %q", runID)}
			}
			fmt.Fprintf(app.stdout, "Stopped run %s.\n", runID)
			return nil
		},
	}
}

// mostRecentRun picks the live run with the highest numeric id, skipping the
// current run. Run ids are assigned in increasing order by the wrapper, so
// the highest id is the newest launch.
func mostRecentRun(app *App) (string, error) {
	jobs, err := app.Jobs.List()
	if err != nil {
		return "", err
	}

	best, bestN := "", -1
	for _, job := range jobs {
		if job.RunID == app.RunID {
			continue
		}
		n, err := strconv.Atoi(job.RunID)
		if err != nil {
			if best == "" {
				best = job.RunID
			}
			continue
		}
		if n > bestN {
			best, bestN = job.RunID, n
		}
	}
	return best, nil
}

// newStopCommandsCommand stops every live run except the current one.
func newStopCommandsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stopcommands",
		Short: "Stop all running pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := app.Jobs.StopAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Stopped %d running command(s).\n", count)
			return nil
		},
	}
}

// newQueryCommand prints the recorded output metadata.
func newQueryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "query [outputs...]",
		Short: "Show recorded pipeline outputs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Deps.QueryOutputs(args)
		},
	}
}

// newPreserveCommand marks outputs so cleanup never removes them.
func newPreserveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "preserve [outputs...]",
		Short: "Protect pipeline outputs from cleanup",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Deps.Preserve(args)
		},
	}
}

// newCleanupCommand removes non-preserved outputs, prompting per file unless
// -y (or the yes config key) pre-approves everything.
func newCleanupCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [outputs...]",
		Short: "Remove non-preserved pipeline outputs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if store, ok := app.Deps.(*engine.OutputStore); ok {
				store.Confirm = confirmFunc(cmd, app, fl)
			}
			return app.Deps.Cleanup(args)
		},
	}
}

// confirmFunc builds the per-output approval hook for cleanup: auto-approve
// under -y or the yes config key, otherwise an interactive y/N prompt.
func confirmFunc(cmd *cobra.Command, app *App, fl *runFlags) func(string) bool {
	if fl.yes || app.Settings.GetBool(config.KeyYes) {
		return func(string) bool { return true }
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return func(output string) bool {
		fmt.Fprintf(app.stdout, "Remove %s? [y/N] ", CmdStyle.Render(output))
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
