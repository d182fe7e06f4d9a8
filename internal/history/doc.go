// SPDX-License-Identifier: MPL-2.0

// Package history records every standard-path invocation to an append-only
// log and reconstructs prior invocations for replay. Each entry is one line:
//
//	<runId> TAB bpipe <mode> <space-joined re-quoted args>
//
// Entry order is append order is chronological; entries are immutable once
// written. The retry resolver parses trailing user arguments, selects an
// entry (newest first), and re-tokenizes its argument vector with the
// shell-style grammar in tokenize.go.
package history
