// SPDX-License-Identifier: MPL-2.0

// Package runid resolves the run identity of this process before any other
// component initializes. A managing launcher hands the identifier over
// through a handshake file; an unmanaged invocation gets a constant
// placeholder identity.
package runid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bpipe-cli/internal/issue"
)

const (
	// UnmanagedRunID is the placeholder identity for invocations that were
	// not started by a managing launcher (no handshake reference supplied).
	UnmanagedRunID = "local"

	// EnvHandshakeRef is the environment variable carrying the handshake
	// reference, set by the launching process.
	EnvHandshakeRef = "BPIPE_PID"

	// LaunchDir is where launchers place handshake files, one per invocation.
	LaunchDir = ".bpipe/launch"

	// DefaultPollInterval is the handshake polling period.
	DefaultPollInterval = 20 * time.Millisecond

	// DefaultMaxAttempts bounds the handshake poll (~2s ceiling).
	DefaultMaxAttempts = 101
)

// Resolver polls for the handshake file. The zero value is not usable; call
// NewResolver. Sleep is injectable so tests can run the full attempt ceiling
// without wall-clock delay.
type Resolver struct {
	Dir         string
	Interval    time.Duration
	MaxAttempts int
	Sleep       func(time.Duration)
}

// NewResolver creates a Resolver with production polling parameters.
func NewResolver() *Resolver {
	return &Resolver{
		Dir:         LaunchDir,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
		Sleep:       time.Sleep,
	}
}

// Resolve derives the run identity. With an empty handshake reference the
// invocation is unmanaged and the placeholder identity is returned. Otherwise
// the resolver polls for the handshake file at a fixed interval, and on
// success performs the single-consumer handoff: read the trimmed content,
// delete the file, return the identity. Exceeding the attempt ceiling is
// fatal for the caller.
func (r *Resolver) Resolve(ref string) (string, error) {
	if ref == "" {
		return UnmanagedRunID, nil
	}

	path := filepath.Join(r.Dir, ref)
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				r.Sleep(r.Interval)
				continue
			}
			return "", issue.Wrap(err, "read handshake file").
				WithResource(path).
				WithSuggestion("Check filesystem permissions on the .bpipe directory")
		}

		id := strings.TrimSpace(string(data))
		if err := os.Remove(path); err != nil {
			return "", issue.Wrap(err, "consume handshake file").WithResource(path)
		}
		return id, nil
	}

	ceiling := time.Duration(r.MaxAttempts) * r.Interval
	return "", issue.New("resolve run identity").
		WithResource(path).
		WithCause(fmt.Errorf("handshake file did not appear within %s", ceiling)).
		WithSuggestion("The launcher may have failed before writing the handshake file").
		WithSuggestion("Check filesystem permissions on the .bpipe directory")
}

// HandshakeRef returns the externally supplied handshake reference, or ""
// for an unmanaged invocation.
func HandshakeRef() string {
	return os.Getenv(EnvHandshakeRef)
}
