// SPDX-License-Identifier: MPL-2.0

package history

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func logWithLines(t *testing.T, lines ...string) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewLog(path)
}

func TestParseRetryArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected RetryRequest
		wantErr  bool
	}{
		{name: "no args", args: nil, expected: RetryRequest{}},
		{name: "selector only", args: []string{"3"}, expected: RetryRequest{Selector: 3, HasSelector: true}},
		{name: "test only", args: []string{"test"}, expected: RetryRequest{TestMode: true}},
		{
			name:     "test then selector",
			args:     []string{"test", "3"},
			expected: RetryRequest{Selector: 3, HasSelector: true, TestMode: true},
		},
		{name: "non integer selector", args: []string{"abc"}, wantErr: true},
		{name: "trailing junk", args: []string{"3", "extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRetryArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRetryArgs(%v) succeeded, want error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRetryArgs(%v): %v", tt.args, err)
			}
			if got != tt.expected {
				t.Errorf("ParseRetryArgs(%v) = %+v, want %+v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestParseRetryArgsBadSelectorType(t *testing.T) {
	t.Parallel()

	_, err := ParseRetryArgs([]string{"x7"})
	var bad *BadSelectorError
	if !errors.As(err, &bad) {
		t.Fatalf("error = %v, want BadSelectorError", err)
	}
}

func TestResolveRetryScenario(t *testing.T) {
	t.Parallel()

	l := logWithLines(t,
		"3\tbpipe run a.pipe in1.txt",
		"5\tbpipe test a.pipe in2.txt",
	)

	tests := []struct {
		name     string
		req      RetryRequest
		wantMode string
		wantArgv []string
	}{
		{
			name:     "no selector picks newest",
			req:      RetryRequest{},
			wantMode: "test",
			wantArgv: []string{"a.pipe", "in2.txt"},
		},
		{
			name:     "selector 3",
			req:      RetryRequest{Selector: 3, HasSelector: true},
			wantMode: "run",
			wantArgv: []string{"a.pipe", "in1.txt"},
		},
		{
			name:     "test forces test flag regardless of stored mode",
			req:      RetryRequest{Selector: 3, HasSelector: true, TestMode: true},
			wantMode: "run",
			wantArgv: []string{"-t", "a.pipe", "in1.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mode, argv, err := l.ResolveRetry(tt.req)
			if err != nil {
				t.Fatalf("ResolveRetry: %v", err)
			}
			if mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			if !reflect.DeepEqual(argv, tt.wantArgv) {
				t.Errorf("argv = %#v, want %#v", argv, tt.wantArgv)
			}
		})
	}
}

func TestResolveRetryDuplicateSelectorPicksNewest(t *testing.T) {
	t.Parallel()

	l := logWithLines(t,
		"9\tbpipe run old.pipe",
		"4\tbpipe run middle.pipe",
		"9\tbpipe run new.pipe",
	)

	_, argv, err := l.ResolveRetry(RetryRequest{Selector: 9, HasSelector: true})
	if err != nil {
		t.Fatalf("ResolveRetry: %v", err)
	}
	if len(argv) != 1 || argv[0] != "new.pipe" {
		t.Errorf("argv = %#v, want the most recent entry for run id 9", argv)
	}
}

func TestResolveRetryMissingOrEmptyLog(t *testing.T) {
	t.Parallel()

	missing := NewLog(filepath.Join(t.TempDir(), "absent"))
	if _, _, err := missing.ResolveRetry(RetryRequest{}); !errors.Is(err, ErrNoHistory) {
		t.Errorf("missing log error = %v, want ErrNoHistory", err)
	}

	empty := logWithLines(t)
	if _, _, err := empty.ResolveRetry(RetryRequest{}); !errors.Is(err, ErrNoHistory) {
		t.Errorf("empty log error = %v, want ErrNoHistory", err)
	}
}

func TestResolveRetrySelectorNotFound(t *testing.T) {
	t.Parallel()

	l := logWithLines(t, "3\tbpipe run a.pipe")
	_, _, err := l.ResolveRetry(RetryRequest{Selector: 42, HasSelector: true})
	if !errors.Is(err, ErrNoHistory) {
		t.Errorf("error = %v, want ErrNoHistory", err)
	}
}

func TestResolveRetryMalformedEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{name: "wrong program token", line: "3\tother run a.pipe"},
		{name: "missing mode", line: "3\tbpipe "},
		{name: "recorded retry mode", line: "3\tbpipe retry 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := logWithLines(t, tt.line)
			_, _, err := l.ResolveRetry(RetryRequest{})
			var malformed *MalformedEntryError
			if !errors.As(err, &malformed) {
				t.Errorf("error = %v, want MalformedEntryError", err)
			}
		})
	}
}

func TestResolveRetryStripsResidualRunIDPrefix(t *testing.T) {
	t.Parallel()

	// A doubly-prefixed line: the second run id must be stripped before
	// grammar matching.
	l := logWithLines(t, "3\t3\tbpipe run a.pipe")
	mode, argv, err := l.ResolveRetry(RetryRequest{Selector: 3, HasSelector: true})
	if err != nil {
		t.Fatalf("ResolveRetry: %v", err)
	}
	if mode != "run" || len(argv) != 1 || argv[0] != "a.pipe" {
		t.Errorf("got mode %q argv %#v", mode, argv)
	}
}

func TestReplayPreservesControlCharacters(t *testing.T) {
	t.Parallel()

	// Arguments with embedded control characters are written in the $'...'
	// form; replay must decode them back to the original bytes.
	l := tempLog(t)
	original := []string{"-p", "header=line one\nline two", "a.pipe", "col1\tcol2"}
	if err := l.Append("13", "run", original); err != nil {
		t.Fatalf("Append: %v", err)
	}

	mode, argv, err := l.ResolveRetry(RetryRequest{})
	if err != nil {
		t.Fatalf("ResolveRetry: %v", err)
	}
	if mode != "run" {
		t.Fatalf("mode = %q", mode)
	}
	if !reflect.DeepEqual(argv, original) {
		t.Errorf("argv = %#v, want %#v", argv, original)
	}
}

func TestReplayIdempotence(t *testing.T) {
	t.Parallel()

	l := tempLog(t)
	original := []string{"-p", "name=John Smith", "a.pipe", "my input.txt"}
	if err := l.Append("11", "run", original); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var first []string
	for i := 0; i < 3; i++ {
		mode, argv, err := l.ResolveRetry(RetryRequest{})
		if err != nil {
			t.Fatalf("ResolveRetry pass %d: %v", i, err)
		}
		if mode != "run" {
			t.Fatalf("mode = %q", mode)
		}
		if !reflect.DeepEqual(argv, original) {
			t.Errorf("pass %d: argv = %#v, want %#v", i, argv, original)
		}
		if i == 0 {
			first = argv
		} else if !reflect.DeepEqual(argv, first) {
			t.Errorf("pass %d differs from first resolution", i)
		}
	}
}
