// SPDX-License-Identifier: MPL-2.0

package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a parsed genomic-range parameter, distinct from a plain string.
// The textual form is "chrom:start-end" (e.g. "chr1:1-1000"); a bare "chrom"
// with no coordinates selects the whole sequence (Start and End both zero).
type Interval struct {
	Chrom string
	Start int64
	End   int64
}

// ParseInterval parses the "chrom[:start-end]" form.
func ParseInterval(raw string) (Interval, error) {
	chrom, coords, hasCoords := strings.Cut(raw, ":")
	if chrom == "" {
		return Interval{}, fmt.Errorf("interval %q has no chromosome part", raw)
	}
	if !hasCoords {
		return Interval{Chrom: chrom}, nil
	}

	startStr, endStr, ok := strings.Cut(coords, "-")
	if !ok {
		return Interval{}, fmt.Errorf("interval %q coordinates must be start-end", raw)
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("interval %q has non-numeric start: %w", raw, err)
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("interval %q has non-numeric end: %w", raw, err)
	}
	if end < start {
		return Interval{}, fmt.Errorf("interval %q ends before it starts", raw)
	}

	return Interval{Chrom: chrom, Start: start, End: end}, nil
}

// String renders the canonical textual form.
func (i Interval) String() string {
	if i.Start == 0 && i.End == 0 {
		return i.Chrom
	}
	return fmt.Sprintf("%s:%d-%d", i.Chrom, i.Start, i.End)
}
