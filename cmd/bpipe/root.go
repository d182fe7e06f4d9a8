// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bpipe.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"bpipe-cli/internal/config"
	"bpipe-cli/internal/issue"
	"bpipe-cli/internal/lifecycle"
	"bpipe-cli/internal/runid"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// runFlags carries the shared pipeline-launch flags of one root command
// instance. Dispatch may re-enter (retry builds a fresh root), so flag state
// is per-instance rather than package-level.
type runFlags struct {
	dir      string
	test     bool
	report   bool
	threads  int
	memory   int
	limits   []string
	verbose  bool
	yes      bool
	params   []string
	interval string
}

// newRootCmd builds the full command tree over app. Retry calls this again
// with the replayed argv, so construction must be side-effect free.
func newRootCmd(app *App) *cobra.Command {
	fl := &runFlags{}

	root := &cobra.Command{
		Use:   "bpipe [flags] [mode] <pipeline file> [args...]",
		Short: "A pipeline run launcher",
		Long: TitleStyle.Render("bpipe") + SubtitleStyle.Render(" - A pipeline run launcher") + `

bpipe launches, records, and replays pipeline runs. Pipelines are defined
in CUE documents; parameters flow in from the command line and from the
pipeline's own parameters block, first binding wins.

` + SubtitleStyle.Render("Examples:") + `
  bpipe run align.pipe in.fq      Run a pipeline over an input
  bpipe test align.pipe in.fq     Show what would run, without executing
  bpipe retry                     Re-issue the most recent invocation
  bpipe retry test 3              Preview a replay of run 3
  bpipe jobs                      List running pipelines`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return standardPath(cmd, app, fl, "run", args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&fl.dir, "dir", "d", "", "output directory for the run")
	pf.BoolVarP(&fl.test, "test", "t", false, "test mode: show what would run without executing")
	pf.BoolVarP(&fl.report, "report", "r", false, "generate an HTML run report")
	pf.IntVarP(&fl.threads, "threads", "n", 0, "maximum concurrency for the run")
	pf.IntVarP(&fl.memory, "memory", "m", 0, "memory limit in MB")
	pf.StringArrayVarP(&fl.limits, "limit", "l", nil, "named resource limit (name=value, repeatable)")
	pf.BoolVarP(&fl.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&fl.yes, "yes", "y", false, "assume yes for confirmation prompts")
	pf.StringArrayVarP(&fl.params, "param", "p", nil, "pipeline parameter (name=value or bare flag, repeatable)")
	pf.StringVarP(&fl.interval, "interval", "L", "", "genomic interval to restrict the run to (chrom[:start-end])")

	root.AddCommand(
		newRunCommand(app, fl, "run", "Run a pipeline"),
		newRunCommand(app, fl, "debug", "Run a pipeline with debug diagnostics"),
		newRunCommand(app, fl, "execute", "Run an inline pipeline body"),
		newTestCommand(app, fl),
		newRetryCommand(app, fl),
		newStopCommand(app),
		newHistoryCommand(app),
		newLogCommand(app),
		newJobsCommand(app),
		newCleanupCommand(app, fl),
		newQueryCommand(app),
		newPreserveCommand(app),
		newStopCommandsCommand(app),
		newDiagramCommand(app, fl),
		newDocumentationCommand(app, fl),
		newDiagramEditorCommand(app, fl),
	)

	return root
}

// modeNames is the dispatch vocabulary; the first bare token matching one of
// these is the invocation's mode for recording purposes.
var modeNames = map[string]bool{
	"run": true, "test": true, "debug": true, "execute": true, "retry": true,
	"stop": true, "history": true, "log": true, "jobs": true,
	"cleanup": true, "query": true, "preserve": true, "stopcommands": true,
	"diagram": true, "documentation": true, "diagrameditor": true,
}

// valueFlags take a separate value token, which must never be mistaken for
// a mode name while scanning the command line.
var valueFlags = map[string]bool{
	"-d": true, "--dir": true,
	"-n": true, "--threads": true,
	"-m": true, "--memory": true,
	"-l": true, "--limit": true,
	"-p": true, "--param": true,
	"-L": true, "--interval": true,
}

// splitInvocation separates the mode token from the rest of the command line
// so the recorder can write "bpipe <mode> <args>". Leading flags are skipped;
// a command line whose first bare token is not a mode defaults to run.
func splitInvocation(argv []string) (string, []string) {
	i := 0
	for i < len(argv) {
		a := argv[i]
		if strings.HasPrefix(a, "-") {
			if valueFlags[a] {
				i += 2
			} else {
				i++
			}
			continue
		}
		if modeNames[a] {
			rest := append(append([]string{}, argv[:i]...), argv[i+1:]...)
			return a, rest
		}
		// First bare token is the pipeline file; default mode.
		break
	}
	return "run", append([]string{}, argv...)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute resolves the run identity, acquires the run marker, and dispatches
// the command line. This is called by main.main().
func Execute() {
	logger := newLogger()

	id, err := runid.NewResolver().Resolve(runid.HandshakeRef())
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, false))
		os.Exit(1)
	}

	settings, err := config.Load()
	if err != nil {
		// Config problems are surfaced but never block the launch.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, false))
		settings = config.Defaults()
	}

	guard, err := lifecycle.Acquire(lifecycle.JobsDir, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, false))
		os.Exit(1)
	}

	app := NewApp(Dependencies{
		RunID:    id,
		Settings: settings,
		Guard:    guard,
		Logger:   logger,
	})

	mode, args := splitInvocation(os.Args[1:])
	app.SetInvocation(mode, args)

	// fang cancels the command context on signal; the executor unwinds and
	// the guard below still releases. Release runs exactly once either way.
	code := 0
	if err := fang.Execute(
		context.Background(),
		newRootCmd(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		code = 1
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		}
	}
	guard.Release()
	os.Exit(code)
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
