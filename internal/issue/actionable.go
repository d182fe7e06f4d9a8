// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is an error with context for user-facing diagnostics: what
// operation failed, which file or entity was involved, and suggestions for
// fixing it. All fatal error classes of the launcher (filesystem failures,
// missing history, malformed replay entries) are reported through this type.
type ActionableError struct {
	// Operation describes what was being attempted (e.g. "append history entry").
	Operation string

	// Resource identifies the file, path, or entity involved (optional).
	Resource string

	// Suggestions provides hints on how to fix the issue (optional).
	Suggestions []string

	// Cause is the underlying error that triggered this one (optional).
	Cause error

	// Internal marks the error as a defect signal rather than a user error.
	// Malformed history entries are the canonical case: the log is written
	// only by this program, so a grammar mismatch means a bug, not bad input.
	Internal bool
}

// New creates an ActionableError for the given operation.
func New(operation string) *ActionableError {
	return &ActionableError{Operation: operation}
}

// Wrap wraps err with operation context. Returns nil when err is nil.
func Wrap(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Cause: err}
}

// WithResource sets the resource involved and returns the error.
func (e *ActionableError) WithResource(res string) *ActionableError {
	e.Resource = res
	return e
}

// WithSuggestion appends a suggestion and returns the error.
func (e *ActionableError) WithSuggestion(s string) *ActionableError {
	e.Suggestions = append(e.Suggestions, s)
	return e
}

// WithCause sets the underlying cause and returns the error.
func (e *ActionableError) WithCause(err error) *ActionableError {
	e.Cause = err
	return e
}

// AsInternal marks the error as a defect signal and returns it.
func (e *ActionableError) AsInternal() *ActionableError {
	e.Internal = true
	return e
}

// Error implements the error interface with a concise single-line message.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	if e.Internal {
		msg.WriteString("internal error: ")
	}
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for terminal display. Suggestions are listed as
// bullets; verbose mode additionally prints the full cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	for _, s := range e.Suggestions {
		msg.WriteString("\n  • ")
		msg.WriteString(s)
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}
