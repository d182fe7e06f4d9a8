// SPDX-License-Identifier: MPL-2.0

// Package params implements the write-once parameter environment exposed to
// pipeline definitions. Bindings arrive from CLI -p tokens, the -L interval
// flag, and script-declared defaults; the first write to a name wins and
// every later write to it is dropped, which is what lets external parameters
// override script defaults unconditionally.
package params

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// RegionName is the parameter key that is always wrapped into an Interval,
// regardless of which entry path bound it.
const RegionName = "region"

type (
	// binding pairs a value with its locked flag. Locked is set on the first
	// successful write; once set, the original value is retained forever.
	binding struct {
		value  any
		locked bool
	}

	// Environment is the write-once name→value store. Values are scalars
	// (int32, int64, float64, bool, string) or Interval. Not safe for
	// concurrent use; the launcher is single-threaded by design.
	Environment struct {
		bindings map[string]binding
		order    []string
		logger   *log.Logger
	}
)

// NewEnvironment creates an empty environment. A nil logger silences the
// duplicate-bind and skipped-token warnings.
func NewEnvironment(logger *log.Logger) *Environment {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Environment{
		bindings: make(map[string]binding),
		logger:   logger,
	}
}

// Bind assigns value to name unless the name is already locked. The first
// successful write locks the name; later writes are dropped without error
// (a warning is logged, but the observable outcome is unchanged). A value
// bound under RegionName is wrapped into an Interval whatever its entry path.
//
// Returns true when the write took effect.
func (e *Environment) Bind(name string, value any) bool {
	if existing, ok := e.bindings[name]; ok && existing.locked {
		e.logger.Warn("parameter already bound, keeping original value",
			"name", name, "dropped", value)
		return false
	}

	if name == RegionName {
		value = e.wrapRegion(value)
	}

	e.bindings[name] = binding{value: value, locked: true}
	e.order = append(e.order, name)
	return true
}

// wrapRegion converts a region value into an Interval regardless of how it
// arrived. A bare numeric chromosome like 22 may reach Bind as an integer
// when a script default declared it, so non-string scalars are re-rendered
// to text before parsing. An unparseable value binds unchanged with a
// warning; a bool comes from a bare "region" flag and carries no interval
// text to parse.
func (e *Environment) wrapRegion(value any) any {
	switch value.(type) {
	case Interval, bool:
		return value
	}

	raw := fmt.Sprint(value)
	iv, err := ParseInterval(raw)
	if err != nil {
		e.logger.Warn("region value is not a valid interval, binding unchanged",
			"value", value, "err", err)
		return value
	}
	return iv
}

// BindToken parses a CLI "key=value" token and binds the coerced value.
// A token with no value after "=" (or no "=" at all) binds boolean true.
// A token lacking a key is reported as a warning and skipped.
func (e *Environment) BindToken(token string) {
	key, rawValue, hasValue := strings.Cut(token, "=")
	if key == "" {
		e.logger.Warn("skipping parameter token with empty key", "token", token)
		return
	}
	if !hasValue || rawValue == "" {
		e.Bind(key, true)
		return
	}
	if key == RegionName {
		// Interval parsing needs the raw text; coercion would mangle a
		// bare numeric chromosome (leading zeros, integer width).
		e.Bind(key, rawValue)
		return
	}
	e.Bind(key, Coerce(rawValue))
}

// Get returns the bound value for name.
func (e *Environment) Get(name string) (any, bool) {
	b, ok := e.bindings[name]
	if !ok {
		return nil, false
	}
	return b.value, true
}

// Names returns the bound names in insertion order.
func (e *Environment) Names() []string {
	names := make([]string, len(e.order))
	copy(names, e.order)
	return names
}

// Len returns the number of bound names.
func (e *Environment) Len() int {
	return len(e.bindings)
}

// Snapshot exports the bindings as a plain map for the pipeline compile
// scope. Intervals are exported as structured values with chrom/start/end
// fields so definitions can address coordinates individually.
func (e *Environment) Snapshot() map[string]any {
	out := make(map[string]any, len(e.bindings))
	for name, b := range e.bindings {
		if iv, ok := b.value.(Interval); ok {
			out[name] = map[string]any{
				"chrom": iv.Chrom,
				"start": iv.Start,
				"end":   iv.End,
			}
			continue
		}
		out[name] = b.value
	}
	return out
}

// Coerce converts a raw token value using the ordered rule list: 32-bit
// integer, then 64-bit integer, then float, then boolean literal, then raw
// string. The first matching rule wins, so coercion is deterministic and
// total over well-formed tokens.
func Coerce(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return int32(v)
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if strings.EqualFold(raw, "true") {
		return true
	}
	if strings.EqualFold(raw, "false") {
		return false
	}
	return raw
}
