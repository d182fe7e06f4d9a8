// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"
	"sync"

	"bpipe-cli/internal/config"
	"bpipe-cli/internal/engine"
	"bpipe-cli/internal/history"
	"bpipe-cli/internal/lifecycle"
	"bpipe-cli/internal/runid"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer - all Cobra command handlers receive an App
	// reference and delegate through its service surfaces (History, Deps,
	// Jobs, Events, Limits, Renderer).
	App struct {
		RunID    string
		Settings *config.Settings
		History  *history.Log
		Deps     engine.DependencyService
		Jobs     engine.CommandService
		Events   *engine.EventBus
		Limits   *engine.Limits
		Renderer *engine.Renderer
		Guard    *lifecycle.Guard
		Logger   *log.Logger

		// Executor, when non-nil, replaces the shell executor. Tests inject
		// capture executors here.
		Executor engine.Executor

		stdout io.Writer
		stderr io.Writer

		mu       sync.Mutex
		invMode  string
		invArgs  []string
		recorded bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		RunID    string
		Settings *config.Settings
		History  *history.Log
		Deps     engine.DependencyService
		Jobs     engine.CommandService
		Events   *engine.EventBus
		Limits   *engine.Limits
		Renderer *engine.Renderer
		Guard    *lifecycle.Guard
		Logger   *log.Logger
		Executor engine.Executor
		Stdout   io.Writer
		Stderr   io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.RunID == "" {
		deps.RunID = runid.UnmanagedRunID
	}
	if deps.Settings == nil {
		deps.Settings = config.Defaults()
	}
	if deps.History == nil {
		deps.History = history.NewLog(history.DefaultPath)
	}
	if deps.Events == nil {
		deps.Events = engine.NewEventBus()
	}
	if deps.Limits == nil {
		deps.Limits = engine.NewLimits()
	}
	if deps.Deps == nil {
		deps.Deps = engine.NewOutputStore("", deps.Stdout)
	}
	if deps.Jobs == nil {
		deps.Jobs = engine.NewJobRegistry(lifecycle.JobsDir, deps.RunID)
	}
	if deps.Renderer == nil {
		deps.Renderer = engine.NewRenderer(deps.Stdout)
	}

	app := &App{
		RunID:    deps.RunID,
		Settings: deps.Settings,
		History:  deps.History,
		Deps:     deps.Deps,
		Jobs:     deps.Jobs,
		Events:   deps.Events,
		Limits:   deps.Limits,
		Renderer: deps.Renderer,
		Guard:    deps.Guard,
		Logger:   deps.Logger,
		Executor: deps.Executor,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}

	// Lifecycle events land in the debug log so -v shows run progress.
	app.Events.Register(func(e engine.Event) {
		app.Logger.Debug("pipeline event", "type", e.Type, "run", e.RunID, "stage", e.Stage)
	})

	return app
}

// SetInvocation records what the recorder should write to history for this
// dispatch: the mode token plus every other command-line token, in order.
// Retry overwrites it before re-entering dispatch.
func (a *App) SetInvocation(mode string, args []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invMode = mode
	a.invArgs = append([]string(nil), args...)
	a.recorded = false
}

// recordInvocation appends the current invocation to history, at most once
// per dispatch. Test-mode runs never record.
func (a *App) recordInvocation(fallbackMode string, fallbackArgs []string) error {
	a.mu.Lock()
	mode, args := a.invMode, a.invArgs
	if a.recorded {
		a.mu.Unlock()
		return nil
	}
	a.recorded = true
	a.mu.Unlock()

	if mode == "" {
		mode, args = fallbackMode, fallbackArgs
	}
	return a.History.Append(a.RunID, mode, args)
}

// executor returns the injected executor, or a shell executor wired to this
// app's event bus, output streams, and the combined run log.
func (a *App) executor(testMode bool) engine.Executor {
	if a.Executor != nil {
		return a.Executor
	}
	exec := engine.NewShellExecutor(a.Events, a.Logger)
	exec.Stdout = a.stdout
	exec.Stderr = a.stderr
	exec.TestMode = testMode
	exec.LogPath = engine.RunLogPath
	return exec
}
