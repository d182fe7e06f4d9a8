// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error values with enough context to
// explain what failed and how to fix it. Fatal subsystem errors (unreadable
// handshake files, unwritable history logs, missing pipeline files) are
// reported through ActionableError so the CLI layer can render a consistent
// diagnostic instead of a raw error chain.
package issue
