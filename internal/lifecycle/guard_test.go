// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireCreatesMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g, err := Acquire(dir, "42")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "42")); err != nil {
		t.Errorf("run marker missing: %v", err)
	}

	g.Release()
	if _, err := os.Stat(filepath.Join(dir, "42")); !os.IsNotExist(err) {
		t.Error("run marker should be removed on release")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g, err := Acquire(dir, "7")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	g.Release()

	// Re-create the marker by hand; a second release must not touch it.
	if err := os.WriteFile(g.MarkerPath(), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	g.Release()
	if _, err := os.Stat(g.MarkerPath()); err != nil {
		t.Error("second Release must be a no-op")
	}
}

func TestReleaseTestModeTruncatesEraseMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g, err := Acquire(dir, "9")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	g.SetTestMode(true)

	erasePath := filepath.Join(dir, "9.erase")
	if err := os.WriteFile(erasePath, []byte("stale content"), 0o644); err != nil {
		t.Fatal(err)
	}

	g.Release()

	info, err := os.Stat(erasePath)
	if err != nil {
		t.Fatalf("erase marker missing after release: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("erase marker size = %d, want 0 (truncated)", info.Size())
	}
}

func TestReleaseWithoutTestModeLeavesEraseMarkerAlone(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g, err := Acquire(dir, "5")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	g.Release()

	if _, err := os.Stat(filepath.Join(dir, "5.erase")); !os.IsNotExist(err) {
		t.Error("erase marker must not be created outside test mode")
	}
}
