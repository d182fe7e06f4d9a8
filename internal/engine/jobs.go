// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"os"
	"path/filepath"
	"strings"

	"bpipe-cli/internal/issue"
)

type (
	// Job is one live run, identified by its marker file.
	Job struct {
		RunID string
		PID   string
	}

	// CommandService is the collaborator surface over live runs.
	CommandService interface {
		List() ([]Job, error)
		Stop(runID string) (bool, error)
		StopAll() (int, error)
	}

	// JobRegistry implements CommandService over run markers in Dir. The
	// current run's own marker is never stopped.
	JobRegistry struct {
		Dir          string
		CurrentRunID string
	}
)

// NewJobRegistry creates a registry over dir for the given run.
func NewJobRegistry(dir, currentRunID string) *JobRegistry {
	return &JobRegistry{Dir: dir, CurrentRunID: currentRunID}
}

// List returns the live runs, excluding erase markers.
func (r *JobRegistry) List() ([]Job, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, issue.Wrap(err, "read jobs directory").WithResource(r.Dir)
	}

	var jobs []Job
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".erase") {
			continue
		}
		pid, _ := os.ReadFile(filepath.Join(r.Dir, entry.Name()))
		jobs = append(jobs, Job{
			RunID: entry.Name(),
			PID:   strings.TrimSpace(string(pid)),
		})
	}
	return jobs, nil
}

// Stop removes the marker for runID. Returns false when no such run exists.
func (r *JobRegistry) Stop(runID string) (bool, error) {
	path := filepath.Join(r.Dir, runID)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, issue.Wrap(err, "stop run").WithResource(path)
	}
	return true, nil
}

// StopAll removes every run marker except the current run's and returns how
// many were stopped.
func (r *JobRegistry) StopAll() (int, error) {
	jobs, err := r.List()
	if err != nil {
		return 0, err
	}

	stopped := 0
	for _, job := range jobs {
		if job.RunID == r.CurrentRunID {
			continue
		}
		ok, err := r.Stop(job.RunID)
		if err != nil {
			return stopped, err
		}
		if ok {
			stopped++
		}
	}
	return stopped, nil
}
