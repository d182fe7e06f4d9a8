// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Reserved limit names populated from the -n and -m flags.
const (
	LimitThreads = "threads"
	LimitMemory  = "memory"
)

// Limits is the resource-limit API handed to the execution engine. Named
// limits arrive from the -l flag; threads and memory have dedicated flags.
type Limits struct {
	values map[string]int
}

// NewLimits creates an empty limit set.
func NewLimits() *Limits {
	return &Limits{values: make(map[string]int)}
}

// SetLimit records a named limit.
func (l *Limits) SetLimit(name string, value int) {
	l.values[name] = value
}

// Get returns the named limit.
func (l *Limits) Get(name string) (int, bool) {
	v, ok := l.values[name]
	return v, ok
}

// Names returns the configured limit names, sorted for deterministic output.
func (l *Limits) Names() []string {
	names := maps.Keys(l.values)
	slices.Sort(names)
	return names
}
