// SPDX-License-Identifier: MPL-2.0

package script

import (
	"fmt"
	"regexp"

	"bpipe-cli/pkg/cueutil"

	cueerrors "cuelang.org/go/cue/errors"
)

// UndefinedVariableError reports a name lookup against a variable that is
// neither bound in the parameter environment nor declared by the pipeline
// source. It carries the name and the originating source line so the user
// sees a real diagnostic instead of a raw evaluator failure.
type UndefinedVariableError struct {
	Name string
	File string
	Line int
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("pipeline variable %q is not defined (%s:%d); declare it in the parameters block or pass -p %s=<value>",
		e.Name, e.File, e.Line, e.Name)
}

var undefinedRef = regexp.MustCompile(`reference "([^"]+)" not found`)

// translate classifies an evaluation failure. An unresolved reference whose
// position lies inside the compiled pipeline source becomes an
// UndefinedVariableError; everything else propagates formatted but otherwise
// unmodified. Failures positioned in framework internals never translate.
func translate(err error, filename string) error {
	for _, e := range cueerrors.Errors(err) {
		m := undefinedRef.FindStringSubmatch(e.Error())
		if m == nil {
			continue
		}

		if pos := e.Position(); pos.IsValid() && pos.Filename() == filename {
			return &UndefinedVariableError{Name: m[1], File: filename, Line: pos.Line()}
		}
		for _, pos := range e.InputPositions() {
			if pos.IsValid() && pos.Filename() == filename {
				return &UndefinedVariableError{Name: m[1], File: filename, Line: pos.Line()}
			}
		}
	}
	return cueutil.FormatError(err, filename)
}
