// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bpipe-cli/internal/issue"

	"github.com/pelletier/go-toml/v2"
)

// OutputsDir holds one metadata record per pipeline output, relative to the
// working directory.
const OutputsDir = ".bpipe/outputs"

type (
	// OutputRecord is the metadata stored for one pipeline output file.
	OutputRecord struct {
		Output    string    `toml:"output"`
		Stage     string    `toml:"stage"`
		Command   string    `toml:"command"`
		CreatedAt time.Time `toml:"created_at"`
		Preserved bool      `toml:"preserved"`
	}

	// DependencyService is the collaborator surface for output metadata.
	DependencyService interface {
		QueryOutputs(args []string) error
		Cleanup(args []string) error
		Preserve(args []string) error
	}

	// OutputStore implements DependencyService over TOML records in Dir.
	OutputStore struct {
		Dir string
		Out io.Writer

		// Confirm approves removal of one output during cleanup. Nil means
		// deny; the CLI wires auto-confirm or an interactive prompt here.
		Confirm func(output string) bool
	}
)

// NewOutputStore creates a store over dir (OutputsDir when empty).
func NewOutputStore(dir string, out io.Writer) *OutputStore {
	if dir == "" {
		dir = OutputsDir
	}
	if out == nil {
		out = os.Stdout
	}
	return &OutputStore{Dir: dir, Out: out}
}

// Save writes the metadata record for one output.
func (s *OutputStore) Save(rec OutputRecord) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return issue.Wrap(err, "create outputs directory").WithResource(s.Dir)
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return issue.Wrap(err, "encode output record").WithResource(rec.Output)
	}
	path := s.recordPath(rec.Output)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return issue.Wrap(err, "write output record").WithResource(path)
	}
	return nil
}

// QueryOutputs prints the recorded outputs, optionally filtered to the named
// outputs, most recent first.
func (s *OutputStore) QueryOutputs(args []string) error {
	records, err := s.load(args)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(s.Out, "No outputs recorded.")
		return nil
	}

	for _, rec := range records {
		flag := " "
		if rec.Preserved {
			flag = "P"
		}
		fmt.Fprintf(s.Out, "%s %-30s  stage=%s  created=%s\n",
			flag, rec.Output, rec.Stage, rec.CreatedAt.Format(time.RFC3339))
		if rec.Command != "" {
			fmt.Fprintf(s.Out, "    %s\n", rec.Command)
		}
	}
	return nil
}

// Cleanup removes non-preserved outputs (and their records), subject to the
// Confirm hook. With args, only the named outputs are considered.
func (s *OutputStore) Cleanup(args []string) error {
	records, err := s.load(args)
	if err != nil {
		return err
	}

	removed := 0
	for _, rec := range records {
		if rec.Preserved {
			continue
		}
		if s.Confirm == nil || !s.Confirm(rec.Output) {
			continue
		}
		if err := os.Remove(rec.Output); err != nil && !os.IsNotExist(err) {
			return issue.Wrap(err, "remove output").WithResource(rec.Output)
		}
		if err := os.Remove(s.recordPath(rec.Output)); err != nil {
			return issue.Wrap(err, "remove output record").WithResource(rec.Output)
		}
		removed++
	}

	fmt.Fprintf(s.Out, "Cleaned up %d output(s).\n", removed)
	return nil
}

// Preserve marks the named outputs (or all, with no args) as preserved so
// cleanup never removes them.
func (s *OutputStore) Preserve(args []string) error {
	records, err := s.load(args)
	if err != nil {
		return err
	}

	preserved := 0
	for _, rec := range records {
		if rec.Preserved {
			continue
		}
		rec.Preserved = true
		if err := s.Save(rec); err != nil {
			return err
		}
		preserved++
	}

	fmt.Fprintf(s.Out, "Preserved %d output(s).\n", preserved)
	return nil
}

// load reads all records, filtered to the named outputs when args is
// non-empty, newest first.
func (s *OutputStore) load(args []string) ([]OutputRecord, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, issue.Wrap(err, "read outputs directory").WithResource(s.Dir)
	}

	wanted := make(map[string]bool, len(args))
	for _, a := range args {
		wanted[a] = true
	}

	var records []OutputRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, issue.Wrap(err, "read output record").WithResource(path)
		}
		var rec OutputRecord
		if err := toml.Unmarshal(data, &rec); err != nil {
			return nil, issue.Wrap(err, "decode output record").WithResource(path)
		}
		if len(wanted) > 0 && !wanted[rec.Output] {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// recordPath maps an output file name to its record path. Path separators
// are flattened so nested outputs stay one record file each.
func (s *OutputStore) recordPath(output string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(output)
	return filepath.Join(s.Dir, name+".toml")
}
