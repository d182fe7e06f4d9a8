// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunLogPath is the combined output log of executed runs, relative to the
// working directory. The log command prints it.
const RunLogPath = ".bpipe/log"

type (
	// Executor runs an evaluated pipeline definition. The launcher only
	// hands over the definition; scheduling and dependency tracking are the
	// executor's concern.
	Executor interface {
		Run(ctx context.Context, runID string, def Definition) error
	}

	// ShellExecutor runs stage commands with the embedded shell interpreter,
	// one stage at a time in definition order. In test mode it reports what
	// would run without executing anything.
	ShellExecutor struct {
		Stdout   io.Writer
		Stderr   io.Writer
		Logger   *log.Logger
		Events   *EventBus
		TestMode bool

		// LogPath, when set, tees stage output into a combined run log.
		LogPath string
	}
)

// NewShellExecutor creates an executor wired to the given event bus.
func NewShellExecutor(events *EventBus, logger *log.Logger) *ShellExecutor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ShellExecutor{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
		Events: events,
	}
}

// Run executes each stage's command. Stage scripts are parsed before the
// first one runs so a syntax error never leaves a pipeline half executed.
func (e *ShellExecutor) Run(ctx context.Context, runID string, def Definition) error {
	parser := syntax.NewParser()
	progs := make([]*syntax.File, len(def.Stages))
	for i, stage := range def.Stages {
		prog, err := parser.Parse(strings.NewReader(stage.Exec), stage.Name)
		if err != nil {
			return fmt.Errorf("stage %q has a malformed command: %w", stage.Name, err)
		}
		progs[i] = prog
	}

	stdout, stderr := e.Stdout, e.Stderr
	if e.LogPath != "" && !e.TestMode {
		f, err := e.openRunLog(runID)
		if err != nil {
			e.Logger.Warn("run log unavailable", "path", e.LogPath, "err", err)
		} else {
			defer f.Close()
			stdout = io.MultiWriter(stdout, f)
			stderr = io.MultiWriter(stderr, f)
		}
	}

	e.Events.Publish(Event{Type: EventRunStarted, RunID: runID})

	for i, stage := range def.Stages {
		e.Events.Publish(Event{Type: EventStageStarted, RunID: runID, Stage: stage.Name})

		if e.TestMode {
			e.Logger.Info("test mode, not executing", "stage", stage.Name, "exec", stage.Exec)
			e.Events.Publish(Event{Type: EventStageCompleted, RunID: runID, Stage: stage.Name})
			continue
		}

		runner, err := interp.New(
			interp.StdIO(nil, stdout, stderr),
			interp.Env(expand.ListEnviron(os.Environ()...)),
		)
		if err != nil {
			return fmt.Errorf("create stage interpreter: %w", err)
		}

		e.Logger.Debug("executing stage", "stage", stage.Name)
		if err := runner.Run(ctx, progs[i]); err != nil {
			e.Events.Publish(Event{Type: EventRunFailed, RunID: runID, Stage: stage.Name})
			return fmt.Errorf("stage %q failed: %w", stage.Name, err)
		}

		e.Events.Publish(Event{Type: EventStageCompleted, RunID: runID, Stage: stage.Name})
	}

	e.Events.Publish(Event{Type: EventRunCompleted, RunID: runID})
	return nil
}

// openRunLog opens the combined run log for appending, writing a run header.
func (e *ShellExecutor) openRunLog(runID string) (*os.File, error) {
	if dir := filepath.Dir(e.LogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(e.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "==== run %s ====\n", runID)
	return f, nil
}
