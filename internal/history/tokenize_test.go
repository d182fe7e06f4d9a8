// SPDX-License-Identifier: MPL-2.0

package history

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "plain words",
			input:    "a.pipe in1.txt in2.txt",
			expected: []string{"a.pipe", "in1.txt", "in2.txt"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "runs of whitespace",
			input:    "  a \t b  ",
			expected: []string{"a", "b"},
		},
		{
			name:     "single quotes group verbatim",
			input:    "run 'my file.txt'",
			expected: []string{"run", "my file.txt"},
		},
		{
			name:     "double quotes group verbatim",
			input:    `-p "name=John Smith" x`,
			expected: []string{"-p", "name=John Smith", "x"},
		},
		{
			name:     "adjacent quoted segments join one token",
			input:    `'a b'"c d"`,
			expected: []string{"a bc d"},
		},
		{
			name:     "backslash escapes whitespace outside quotes",
			input:    `in\ 1.txt`,
			expected: []string{"in 1.txt"},
		},
		{
			name:     "backslash escapes quote character",
			input:    `don\'t stop`,
			expected: []string{"don't", "stop"},
		},
		{
			name:     "no escape processing inside quotes",
			input:    `'a\nb'`,
			expected: []string{`a\nb`},
		},
		{
			name:     "empty quoted token survives",
			input:    `a '' b`,
			expected: []string{"a", "", "b"},
		},
		{
			name:     "ansi quoting decodes newline",
			input:    `run $'line one\nline two'`,
			expected: []string{"run", "line one\nline two"},
		},
		{
			name:     "ansi quoting decodes tab",
			input:    `$'tab\tsep'`,
			expected: []string{"tab\tsep"},
		},
		{
			name:     "ansi hex escape",
			input:    `$'\x1b[0m'`,
			expected: []string{"\x1b[0m"},
		},
		{
			name:     "ansi octal escape",
			input:    `$'\033done'`,
			expected: []string{"\x1bdone"},
		},
		{
			name:     "ansi segment joins adjacent text",
			input:    `pre$'\n'post`,
			expected: []string{"pre\npost"},
		},
		{
			name:     "ansi escaped quote does not end the segment",
			input:    `$'don\'t\nstop'`,
			expected: []string{"don't\nstop"},
		},
		{
			name:     "dollar without quote is literal",
			input:    `$HOME a`,
			expected: []string{"$HOME", "a"},
		},
		{
			name:     "trailing backslash kept literally",
			input:    `a\`,
			expected: []string{`a\`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Split(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}
