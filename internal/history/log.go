// SPDX-License-Identifier: MPL-2.0

package history

import (
	"os"
	"path/filepath"
	"strings"

	"bpipe-cli/internal/issue"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultPath is the history log location relative to the working directory.
const DefaultPath = ".bpipe/history"

type (
	// Log is the append-only invocation history. It never rewrites or
	// truncates; the only mutation is appending one line per dispatch.
	Log struct {
		Path string
	}

	// Entry is one recorded invocation.
	Entry struct {
		RunID       string
		CommandLine string
	}
)

// NewLog creates a Log at path, or at DefaultPath when path is empty.
func NewLog(path string) *Log {
	if path == "" {
		path = DefaultPath
	}
	return &Log{Path: path}
}

// Append records one invocation. Arguments containing whitespace (or any
// other shell metacharacter) are re-quoted so the line re-tokenizes to the
// original vector on replay. The log file and its parent directory are
// created on first use; an unwritable location is surfaced, not ignored.
func (l *Log) Append(runID, mode string, args []string) error {
	parts := make([]string, 0, len(args)+2)
	parts = append(parts, "bpipe", mode)
	for _, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return issue.Wrap(err, "quote history argument").WithResource(arg)
		}
		parts = append(parts, quoted)
	}

	if dir := filepath.Dir(l.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return issue.Wrap(err, "create history directory").WithResource(dir)
		}
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return issue.Wrap(err, "open history log").
			WithResource(l.Path).
			WithSuggestion("Check filesystem permissions on the .bpipe directory")
	}
	defer f.Close()

	line := runID + "\t" + strings.Join(parts, " ") + "\n"
	if _, err := f.WriteString(line); err != nil {
		return issue.Wrap(err, "append history entry").WithResource(l.Path)
	}
	return nil
}

// Entries returns all recorded invocations, oldest first.
func (l *Log) Entries() ([]Entry, error) {
	lines, err := l.lines()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		runID, rest, ok := strings.Cut(line, "\t")
		if !ok {
			// Tolerate hand-damaged lines when listing; replay is stricter.
			entries = append(entries, Entry{CommandLine: line})
			continue
		}
		entries = append(entries, Entry{RunID: runID, CommandLine: rest})
	}
	return entries, nil
}

// lines reads the log and returns its non-empty lines in file order.
// A missing file reads as an empty log.
func (l *Log) lines() ([]string, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, issue.Wrap(err, "read history log").WithResource(l.Path)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
