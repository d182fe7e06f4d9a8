// SPDX-License-Identifier: MPL-2.0

package history

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TestFlagToken is prepended to a reconstructed argument vector when the user
// requested test mode on replay.
const TestFlagToken = "-t"

// ErrNoHistory means there is no prior invocation to replay: the log is
// missing, empty, or contains no entry matching the requested selector.
var ErrNoHistory = errors.New("no prior bpipe command to retry")

type (
	// RetryRequest is parsed from the trailing user arguments of a retry
	// invocation. It is never persisted.
	RetryRequest struct {
		Selector    int
		HasSelector bool
		TestMode    bool
	}

	// BadSelectorError reports a non-integer selector token (a user error).
	BadSelectorError struct {
		Token string
	}

	// MalformedEntryError reports a history line that does not match the
	// replay grammar. The log is written only by this program, so this is a
	// defect signal, distinct from user errors.
	MalformedEntryError struct {
		Entry string
	}
)

func (e *BadSelectorError) Error() string {
	return fmt.Sprintf("retry selector %q is not an integer run id", e.Token)
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("history entry does not match 'bpipe <mode> ...': %q", e.Entry)
}

// ParseRetryArgs interprets the trailing arguments of a retry invocation:
// an optional leading "test" token, then an optional integer selector.
func ParseRetryArgs(args []string) (RetryRequest, error) {
	var req RetryRequest

	if len(args) > 0 && args[0] == "test" {
		req.TestMode = true
		args = args[1:]
	}
	if len(args) > 0 {
		sel, err := strconv.Atoi(args[0])
		if err != nil {
			return RetryRequest{}, &BadSelectorError{Token: args[0]}
		}
		req.Selector = sel
		req.HasSelector = true
		args = args[1:]
	}
	if len(args) > 0 {
		return RetryRequest{}, fmt.Errorf("unexpected retry argument %q", args[0])
	}
	return req, nil
}

// leadingRunID matches a residual "<digits>\t" prefix on a selected line.
var leadingRunID = regexp.MustCompile(`^\d+\t`)

// ResolveRetry reconstructs the mode and argument vector of a previously
// recorded invocation. With a selector it picks the newest entry whose run id
// matches; without one it picks the most recently appended entry. For an
// unchanged log the same request resolves to the same result every time.
func (l *Log) ResolveRetry(req RetryRequest) (mode string, argv []string, err error) {
	lines, err := l.lines()
	if err != nil {
		return "", nil, err
	}
	if len(lines) == 0 {
		return "", nil, ErrNoHistory
	}

	var selected string
	if req.HasSelector {
		prefix := strconv.Itoa(req.Selector) + "\t"
		for i := len(lines) - 1; i >= 0; i-- {
			if strings.HasPrefix(lines[i], prefix) {
				selected = lines[i]
				break
			}
		}
		if selected == "" {
			return "", nil, fmt.Errorf("%w: no entry for run id %d", ErrNoHistory, req.Selector)
		}
		selected = selected[len(prefix):]
	} else {
		selected = lines[len(lines)-1]
		if _, rest, ok := strings.Cut(selected, "\t"); ok {
			selected = rest
		}
	}
	selected = leadingRunID.ReplaceAllString(selected, "")

	rest, ok := strings.CutPrefix(selected, "bpipe ")
	if !ok {
		return "", nil, &MalformedEntryError{Entry: selected}
	}
	mode, tail, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if mode == "" || mode == "retry" {
		return "", nil, &MalformedEntryError{Entry: selected}
	}

	argv = Split(tail)
	if req.TestMode {
		argv = append([]string{TestFlagToken}, argv...)
	}
	return mode, argv, nil
}
