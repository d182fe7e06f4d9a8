// SPDX-License-Identifier: MPL-2.0

// Package lifecycle manages the per-run marker files that exist for exactly
// the lifetime of the process. The guard is acquired once at startup, right
// after identity resolution, and released unconditionally on exit — normal,
// signalled, or failing — exactly once.
package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"bpipe-cli/internal/issue"
)

// JobsDir holds one marker file per live run, relative to the working
// directory. The jobs and stop commands operate on this directory.
const JobsDir = ".bpipe/jobs"

// Guard owns the per-run marker. Release is idempotent.
type Guard struct {
	markerPath string
	erasePath  string
	testMode   atomic.Bool
	once       sync.Once
}

// Acquire creates the live-run marker for runID under dir and returns the
// guard that removes it. The marker content is this process's pid, so
// stop can report which process owned a run.
func Acquire(dir, runID string) (*Guard, error) {
	if dir == "" {
		dir = JobsDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, issue.Wrap(err, "create jobs directory").WithResource(dir)
	}

	markerPath := filepath.Join(dir, runID)
	pid := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(markerPath, []byte(pid), 0o644); err != nil {
		return nil, issue.Wrap(err, "create run marker").WithResource(markerPath)
	}

	return &Guard{
		markerPath: markerPath,
		erasePath:  markerPath + ".erase",
	}, nil
}

// SetTestMode flags the run as a test-mode run; on release the companion
// erase marker is truncated in addition to removing the run marker.
func (g *Guard) SetTestMode(on bool) {
	g.testMode.Store(on)
}

// MarkerPath returns the live-run marker path.
func (g *Guard) MarkerPath() string {
	return g.markerPath
}

// Release deletes the run marker and, in test mode, truncates the erase
// marker. It runs its work exactly once regardless of how many exit paths
// reach it.
func (g *Guard) Release() {
	g.once.Do(func() {
		// Marker removal is best effort: the process is exiting and there
		// is nowhere left to surface a failure.
		_ = os.Remove(g.markerPath)

		if g.testMode.Load() {
			if f, err := os.OpenFile(g.erasePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644); err == nil {
				f.Close()
			}
		}
	})
}
