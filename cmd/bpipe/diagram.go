// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"bpipe-cli/internal/engine"
	"bpipe-cli/internal/script"

	"github.com/spf13/cobra"
)

// newDiagramCommand renders the stage graph as Graphviz DOT next to the
// pipeline file.
func newDiagramCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram <pipeline file> [args...]",
		Short: "Render the pipeline's stage graph as a DOT file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, filename, err := evaluateOnly(app, fl, args)
			if err != nil {
				return err
			}
			return app.Renderer.Diagram(def, sibling(filename, ".dot"))
		},
	}
}

// newDiagramEditorCommand renders an editable HTML page around the DOT
// source.
func newDiagramEditorCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diagrameditor <pipeline file> [args...]",
		Short: "Render an editable HTML page for the pipeline's stage graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, filename, err := evaluateOnly(app, fl, args)
			if err != nil {
				return err
			}
			return app.Renderer.DiagramEditor(def, sibling(filename, ".html"))
		},
	}
}

// newDocumentationCommand renders the pipeline's documentation to the
// terminal.
func newDocumentationCommand(app *App, fl *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "documentation <pipeline file> [args...]",
		Short: "Render the pipeline's documentation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, _, err := evaluateOnly(app, fl, args)
			if err != nil {
				return err
			}
			return app.Renderer.Documentation(def)
		},
	}
}

// evaluateOnly compiles the pipeline against the external parameters without
// executing or recording anything.
func evaluateOnly(app *App, fl *runFlags, args []string) (engine.Definition, string, error) {
	env, err := buildEnvironment(app, fl)
	if err != nil {
		return engine.Definition{}, "", err
	}

	filename, source, trailing, err := pipelineSource("run", args)
	if err != nil {
		return engine.Definition{}, "", err
	}

	boot := script.New(env, nil, app.Logger)
	def, err := boot.Evaluate(filename, source, trailing)
	if err != nil {
		return engine.Definition{}, "", &ExitError{Code: 1, Err: err}
	}
	return def, filename, nil
}

// sibling maps a pipeline file name to an output path with the given
// extension, next to the pipeline file.
func sibling(filename, ext string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "pipeline"
	}
	return fmt.Sprintf("%s%s", base, ext)
}
