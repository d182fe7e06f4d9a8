// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func storeWithRecords(t *testing.T, recs ...OutputRecord) (*OutputStore, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewOutputStore(filepath.Join(t.TempDir(), "outputs"), &out)
	for _, rec := range recs {
		if err := s.Save(rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	return s, &out
}

func TestQueryOutputsListsRecords(t *testing.T) {
	t.Parallel()

	s, out := storeWithRecords(t,
		OutputRecord{Output: "aligned.bam", Stage: "align", Command: "bwa mem ...", CreatedAt: time.Now()},
		OutputRecord{Output: "sorted.bam", Stage: "sort", CreatedAt: time.Now().Add(time.Second), Preserved: true},
	)

	if err := s.QueryOutputs(nil); err != nil {
		t.Fatalf("QueryOutputs: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "aligned.bam") || !strings.Contains(text, "sorted.bam") {
		t.Errorf("listing missing outputs:\n%s", text)
	}
	if !strings.Contains(text, "P sorted.bam") {
		t.Errorf("preserved output should be flagged:\n%s", text)
	}
}

func TestQueryOutputsFilterByName(t *testing.T) {
	t.Parallel()

	s, out := storeWithRecords(t,
		OutputRecord{Output: "a.bam", Stage: "align", CreatedAt: time.Now()},
		OutputRecord{Output: "b.bam", Stage: "align", CreatedAt: time.Now()},
	)

	if err := s.QueryOutputs([]string{"b.bam"}); err != nil {
		t.Fatalf("QueryOutputs: %v", err)
	}
	if strings.Contains(out.String(), "a.bam") {
		t.Errorf("filtered listing should omit a.bam:\n%s", out.String())
	}
}

func TestCleanupRespectsPreserveAndConfirm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	disposable := filepath.Join(dir, "tmp.bam")
	keeper := filepath.Join(dir, "final.bam")
	for _, p := range []string{disposable, keeper} {
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, _ := storeWithRecords(t,
		OutputRecord{Output: disposable, Stage: "align", CreatedAt: time.Now()},
		OutputRecord{Output: keeper, Stage: "call", CreatedAt: time.Now(), Preserved: true},
	)
	s.Confirm = func(string) bool { return true }

	if err := s.Cleanup(nil); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, err := os.Stat(disposable); !os.IsNotExist(err) {
		t.Error("non-preserved output should be removed")
	}
	if _, err := os.Stat(keeper); err != nil {
		t.Error("preserved output must survive cleanup")
	}
}

func TestCleanupWithoutConfirmationRemovesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "tmp.bam")
	if err := os.WriteFile(output, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := storeWithRecords(t, OutputRecord{Output: output, Stage: "align", CreatedAt: time.Now()})

	if err := s.Cleanup(nil); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Error("cleanup without a confirm hook must not remove outputs")
	}
}

func TestPreserveMarksRecords(t *testing.T) {
	t.Parallel()

	s, _ := storeWithRecords(t, OutputRecord{Output: "x.bam", Stage: "align", CreatedAt: time.Now()})

	if err := s.Preserve([]string{"x.bam"}); err != nil {
		t.Fatalf("Preserve: %v", err)
	}

	recs, err := s.load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 1 || !recs[0].Preserved {
		t.Errorf("record not preserved: %+v", recs)
	}
}

func TestQueryOutputsEmptyStore(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewOutputStore(filepath.Join(t.TempDir(), "never-created"), &out)
	if err := s.QueryOutputs(nil); err != nil {
		t.Fatalf("QueryOutputs: %v", err)
	}
	if !strings.Contains(out.String(), "No outputs recorded.") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
