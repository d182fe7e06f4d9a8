// SPDX-License-Identifier: MPL-2.0

// Package script compiles and executes pipeline definitions against the
// parameter environment. Evaluation is two-phase: script-declared defaults
// from the parameters block are bound into the environment first (write-once
// drops any name the CLI already bound), then the full source is compiled
// with the environment as its variable scope.
package script

import (
	"context"
	"fmt"
	"io"

	"bpipe-cli/internal/engine"
	"bpipe-cli/internal/params"
	"bpipe-cli/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/parser"
	"github.com/charmbracelet/log"
)

const (
	// ParametersField is the optional top-level block of script-declared
	// parameter defaults.
	ParametersField = "parameters"

	// PipelineField is the top-level pipeline body.
	PipelineField = "pipeline"

	// ArgsName is the reserved scope name carrying trailing positional
	// arguments into the definition.
	ArgsName = "args"
)

// Bootstrap wires the parameter environment and the executor around one
// pipeline evaluation.
type Bootstrap struct {
	Env      *params.Environment
	Executor engine.Executor
	Logger   *log.Logger
}

// New creates a Bootstrap. A nil logger discards diagnostics.
func New(env *params.Environment, executor engine.Executor, logger *log.Logger) *Bootstrap {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bootstrap{Env: env, Executor: executor, Logger: logger}
}

// Execute evaluates the pipeline source with the parameter environment as
// its variable scope and hands the evaluated definition to the executor.
// Trailing positional arguments are bound under the reserved args name.
func (b *Bootstrap) Execute(ctx context.Context, runID, filename, source string, trailing []string) error {
	def, err := b.Evaluate(filename, source, trailing)
	if err != nil {
		return err
	}
	return b.Executor.Run(ctx, runID, def)
}

// Evaluate compiles the pipeline source against the parameter environment
// and returns the evaluated definition without executing it. The diagram and
// documentation modes use this directly.
func (b *Bootstrap) Evaluate(filename, source string, trailing []string) (engine.Definition, error) {
	var def engine.Definition

	file, err := parser.ParseFile(filename, source)
	if err != nil {
		return def, cueutil.FormatError(err, filename)
	}

	cctx := cuecontext.New()
	if err := b.bindDeclaredDefaults(cctx, file, filename); err != nil {
		return def, err
	}

	if trailing == nil {
		trailing = []string{}
	}
	scopeMap := b.Env.Snapshot()
	scopeMap[ArgsName] = trailing
	scope := cctx.Encode(scopeMap)
	if scope.Err() != nil {
		return def, fmt.Errorf("internal error: encode parameter scope: %w", scope.Err())
	}

	compiled := cctx.CompileString(source, cue.Filename(filename), cue.Scope(scope))
	if err := compiled.Err(); err != nil {
		return def, translate(err, filename)
	}
	if err := compiled.Validate(); err != nil {
		return def, translate(err, filename)
	}

	pipeline := compiled.LookupPath(cue.ParsePath(PipelineField))
	if !pipeline.Exists() {
		return def, fmt.Errorf("%s: definition has no %q body", filename, PipelineField)
	}

	if err := pipeline.Decode(&def); err != nil {
		return def, cueutil.FormatError(err, filename)
	}

	b.Logger.Debug("pipeline evaluated", "file", filename, "stages", len(def.Stages))
	return def, nil
}

// bindDeclaredDefaults compiles the parameters block on its own and binds
// each concrete scalar into the environment. Names the CLI already bound
// stay locked, which is how external parameters override script defaults.
func (b *Bootstrap) bindDeclaredDefaults(cctx *cue.Context, file *ast.File, filename string) error {
	block := parametersBlock(file)
	if block == nil {
		return nil
	}

	src, err := format.Node(block)
	if err != nil {
		return fmt.Errorf("internal error: render parameters block: %w", err)
	}

	value := cctx.CompileBytes(src, cue.Filename(filename))
	if value.Err() != nil {
		return cueutil.FormatError(value.Err(), filename)
	}

	it, err := value.Fields()
	if err != nil {
		return cueutil.FormatError(err, filename)
	}
	for it.Next() {
		name := fieldName(it.Selector())
		val, ok := scalarOf(it.Value())
		if !ok {
			b.Logger.Warn("skipping non-scalar parameter default", "name", name)
			continue
		}
		b.Env.Bind(name, val)
	}
	return nil
}

// parametersBlock finds the top-level parameters struct, if any.
func parametersBlock(file *ast.File) *ast.StructLit {
	for _, decl := range file.Decls {
		field, ok := decl.(*ast.Field)
		if !ok {
			continue
		}
		name, _, err := ast.LabelName(field.Label)
		if err != nil || name != ParametersField {
			continue
		}
		if lit, ok := field.Value.(*ast.StructLit); ok {
			return lit
		}
	}
	return nil
}

func fieldName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// scalarOf extracts a concrete Go scalar from a CUE value, resolving
// disjunction defaults first.
func scalarOf(v cue.Value) (any, bool) {
	if d, ok := v.Default(); ok {
		v = d
	}
	if !v.IsConcrete() {
		return nil, false
	}

	switch v.Kind() {
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, false
		}
		return i, true
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, false
		}
		return b, true
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, false
		}
		return s, true
	default:
		return nil, false
	}
}
