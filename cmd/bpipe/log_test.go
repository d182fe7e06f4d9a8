// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bpipe-cli/internal/engine"
)

// The run log lives at a fixed working-directory-relative path, so these
// tests pin the working directory instead of running in parallel.

func TestLogCommandMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	app, out, _ := newTestApp(t)
	if err := runCLI(t, app, "log"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out.String(), "No run log found.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLogCommandPrintsRunLog(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.MkdirAll(filepath.Dir(engine.RunLogPath), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "==== run 7 ====\naligned 100 reads\n"
	if err := os.WriteFile(engine.RunLogPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app, out, _ := newTestApp(t)
	if err := runCLI(t, app, "log"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if out.String() != content {
		t.Errorf("output = %q, want %q", out.String(), content)
	}
}
