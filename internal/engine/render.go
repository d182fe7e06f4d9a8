// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"bpipe-cli/internal/issue"

	"github.com/charmbracelet/glamour"
)

// Renderer emits the diagram and documentation views of a pipeline
// definition. It never interprets stage semantics beyond names and docs.
type Renderer struct {
	Out io.Writer
}

// NewRenderer creates a renderer writing terminal output to out.
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{Out: out}
}

// Diagram writes a Graphviz DOT rendering of the stage chain to outPath.
func (r *Renderer) Diagram(def Definition, outPath string) error {
	if err := os.WriteFile(outPath, []byte(r.dot(def)), 0o644); err != nil {
		return issue.Wrap(err, "write pipeline diagram").WithResource(outPath)
	}
	fmt.Fprintf(r.Out, "Wrote %s\n", outPath)
	return nil
}

// DiagramEditor writes a self-contained HTML page with the DOT source in an
// editable pane, for tweaking the diagram before rendering elsewhere.
func (r *Renderer) DiagramEditor(def Definition, outPath string) error {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<h1>%s</h1>
<textarea rows="24" cols="80">%s</textarea>
</body>
</html>
`, html.EscapeString(r.title(def)), html.EscapeString(r.title(def)), html.EscapeString(r.dot(def)))

	if err := os.WriteFile(outPath, []byte(page), 0o644); err != nil {
		return issue.Wrap(err, "write diagram editor page").WithResource(outPath)
	}
	fmt.Fprintf(r.Out, "Wrote %s\n", outPath)
	return nil
}

// Documentation renders the pipeline's documentation as terminal markdown.
func (r *Renderer) Documentation(def Definition) error {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", r.title(def))
	if def.Doc != "" {
		fmt.Fprintf(&md, "%s\n\n", def.Doc)
	}
	md.WriteString("## Stages\n\n")
	for _, stage := range def.Stages {
		fmt.Fprintf(&md, "### %s\n\n", stage.Name)
		if stage.Doc != "" {
			fmt.Fprintf(&md, "%s\n\n", stage.Doc)
		}
		fmt.Fprintf(&md, "```sh\n%s\n```\n\n", stage.Exec)
	}

	rendered, err := glamour.Render(md.String(), "dark")
	if err != nil {
		return issue.Wrap(err, "render pipeline documentation")
	}
	fmt.Fprint(r.Out, rendered)
	return nil
}

func (r *Renderer) title(def Definition) string {
	if def.Name != "" {
		return def.Name
	}
	return "pipeline"
}

func (r *Renderer) dot(def Definition) string {
	var dot strings.Builder
	fmt.Fprintf(&dot, "digraph %q {\n", r.title(def))
	dot.WriteString("  rankdir=LR;\n  node [shape=box];\n")
	for i, stage := range def.Stages {
		fmt.Fprintf(&dot, "  s%d [label=%q];\n", i, stage.Name)
		if i > 0 {
			fmt.Fprintf(&dot, "  s%d -> s%d;\n", i-1, i)
		}
	}
	dot.WriteString("}\n")
	return dot.String()
}
