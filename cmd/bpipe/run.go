// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bpipe-cli/internal/config"
	"bpipe-cli/internal/engine"
	"bpipe-cli/internal/issue"
	"bpipe-cli/internal/params"
	"bpipe-cli/internal/script"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// inlineFilename is the synthetic source name for execute-mode bodies.
const inlineFilename = "<inline>"

// newRunCommand builds one of the standard launch modes (run, debug,
// execute). They share the standard path; only the mode token differs.
func newRunCommand(app *App, fl *runFlags, mode, short string) *cobra.Command {
	use := mode + " <pipeline file> [args...]"
	if mode == "execute" {
		use = "execute <pipeline body>"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return standardPath(cmd, app, fl, mode, args)
		},
	}
}

// newTestCommand is run without the side effects: nothing executes, nothing
// is recorded, and the run marker is erased on exit.
func newTestCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "test <pipeline file> [args...]",
		Short: "Show what a pipeline run would execute, without executing it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return standardPath(cmd, app, fl, "test", args)
		},
	}
}

// standardPath is the shared launch sequence for run, test, debug and
// execute: apply flags to settings and limits, bind external parameters,
// record the invocation (outside test mode), then bootstrap the pipeline.
func standardPath(cmd *cobra.Command, app *App, fl *runFlags, mode string, args []string) error {
	testMode := mode == "test" || fl.test
	if app.Guard != nil {
		app.Guard.SetTestMode(testMode)
	}
	if fl.verbose || mode == "debug" {
		app.Logger.SetLevel(log.DebugLevel)
	}

	applySettings(app.Settings, fl, mode)
	if err := applyLimits(app.Limits, fl); err != nil {
		return err
	}

	env, err := buildEnvironment(app, fl)
	if err != nil {
		return err
	}

	filename, source, trailing, err := pipelineSource(mode, args)
	if err != nil {
		return err
	}

	if !testMode {
		if err := app.recordInvocation(mode, args); err != nil {
			return issue.Wrap(err, "record invocation").
				WithResource(app.History.Path).
				WithSuggestion("Check that the history file location is writable")
		}
	}

	boot := script.New(env, app.executor(testMode), app.Logger)
	if err := boot.Execute(cmd.Context(), app.RunID, filename, source, trailing); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

// applySettings overlays the given flags onto the settings store. Unset
// flags leave the config-file or default values in place.
func applySettings(settings *config.Settings, fl *runFlags, mode string) {
	settings.Set(config.KeyMode, mode)
	if fl.dir != "" {
		settings.Set(config.KeyDir, fl.dir)
	}
	if fl.threads > 0 {
		settings.Set(config.KeyMaxThreads, fl.threads)
	}
	if fl.memory > 0 {
		settings.Set(config.KeyMaxMemory, fl.memory)
	}
	if fl.report {
		settings.Set(config.KeyReport, true)
	}
	if fl.verbose {
		settings.Set(config.KeyVerbose, true)
	}
	if fl.yes {
		settings.Set(config.KeyYes, true)
	}
}

// applyLimits populates the limit set from the dedicated thread and memory
// flags plus any repeated -l name=value tokens.
func applyLimits(limits *engine.Limits, fl *runFlags) error {
	if fl.threads > 0 {
		limits.SetLimit(engine.LimitThreads, fl.threads)
	}
	if fl.memory > 0 {
		limits.SetLimit(engine.LimitMemory, fl.memory)
	}
	for _, tok := range fl.limits {
		name, value, ok := strings.Cut(tok, "=")
		if !ok || name == "" {
			return usageError("malformed limit %q, want name=value", tok)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return usageError("limit %q requires an integer value, got %q", name, value)
		}
		limits.SetLimit(name, n)
	}
	return nil
}

// buildEnvironment binds the -p and -L flags into a fresh parameter
// environment. These bind before the pipeline's own defaults, so external
// values win under write-once semantics.
func buildEnvironment(app *App, fl *runFlags) (*params.Environment, error) {
	env := params.NewEnvironment(app.Logger)
	for _, tok := range fl.params {
		env.BindToken(tok)
	}
	if fl.interval != "" {
		iv, err := params.ParseInterval(fl.interval)
		if err != nil {
			return nil, usageError("malformed interval %q: %v", fl.interval, err)
		}
		env.Bind(params.RegionName, iv)
	}
	return env, nil
}

// pipelineSource resolves the pipeline body: execute mode carries it inline,
// every other mode reads the named file. Trailing tokens become pipeline
// arguments.
func pipelineSource(mode string, args []string) (filename, source string, trailing []string, err error) {
	if mode == "execute" {
		if len(args) != 1 {
			return "", "", nil, usageError("execute takes exactly one inline pipeline body")
		}
		return inlineFilename, args[0], nil, nil
	}

	if len(args) == 0 {
		return "", "", nil, usageError("missing pipeline file")
	}
	data, rerr := os.ReadFile(args[0])
	if rerr != nil {
		if errors.Is(rerr, os.ErrNotExist) {
			return "", "", nil, &ExitError{Code: 1, Err: fmt.Errorf("pipeline file %q not found", args[0])}
		}
		return "", "", nil, &ExitError{Code: 1, Err: issue.Wrap(rerr, "read pipeline file").WithResource(args[0])}
	}
	return args[0], string(data), args[1:], nil
}
