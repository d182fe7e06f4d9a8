// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const documentedPipeline = `
pipeline: {
	name: "align"
	doc:  "Aligns reads against the reference."
	stages: [
		{name: "index", exec: "bwa index ref.fa", doc: "Build the index."},
		{name: "map", exec: "bwa mem ref.fa in.fq"},
	]
}
`

func TestDiagramWritesDotFile(t *testing.T) {
	t.Parallel()

	app, out, exec := newTestApp(t)
	file := writePipeline(t, documentedPipeline)

	if err := runCLI(t, app, "diagram", file); err != nil {
		t.Fatalf("diagram: %v", err)
	}

	dotPath := strings.TrimSuffix(file, filepath.Ext(file)) + ".dot"
	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatalf("read dot file: %v", err)
	}
	dot := string(data)
	for _, want := range []string{"digraph", "index", "map", "s0 -> s1"} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q:\n%s", want, dot)
		}
	}
	if !strings.Contains(out.String(), dotPath) {
		t.Errorf("output should name the written file: %q", out.String())
	}
	if exec.calls != 0 {
		t.Error("diagram mode must not execute the pipeline")
	}
}

func TestDiagramEditorWritesHTMLPage(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)
	file := writePipeline(t, documentedPipeline)

	if err := runCLI(t, app, "diagrameditor", file); err != nil {
		t.Fatalf("diagrameditor: %v", err)
	}

	htmlPath := strings.TrimSuffix(file, filepath.Ext(file)) + ".html"
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html file: %v", err)
	}
	page := string(data)
	if !strings.Contains(page, "<textarea") || !strings.Contains(page, "digraph") {
		t.Errorf("page missing editable DOT pane:\n%s", page)
	}
}

func TestDocumentationRendersStages(t *testing.T) {
	t.Parallel()

	app, out, exec := newTestApp(t)
	file := writePipeline(t, documentedPipeline)

	if err := runCLI(t, app, "documentation", file); err != nil {
		t.Fatalf("documentation: %v", err)
	}

	got := out.String()
	for _, want := range []string{"align", "index", "map"} {
		if !strings.Contains(got, want) {
			t.Errorf("documentation missing %q", want)
		}
	}
	if exec.calls != 0 {
		t.Error("documentation mode must not execute the pipeline")
	}
}

func TestDiagramDoesNotRecordHistory(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)
	file := writePipeline(t, documentedPipeline)

	if err := runCLI(t, app, "diagram", file); err != nil {
		t.Fatalf("diagram: %v", err)
	}
	entries, err := app.History.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("diagram recorded %d entries", len(entries))
	}
}
