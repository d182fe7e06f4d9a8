// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/charmbracelet/log"
)

// newLogger creates the process logger. Verbose and debug modes lower the
// level to Debug later; the default hides everything below Info.
func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "bpipe",
		ReportTimestamp: false,
	})
}
