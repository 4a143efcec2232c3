package main

import (
	"github.com/panbanda/scss-unused/internal/output"
	"github.com/panbanda/scss-unused/pkg/analyzer/unused"
)

const (
	labelUnusedVariable = "unused variable"
	labelUnusedMixin    = "unused mixin"
	labelUnusedFunction = "unused function"
	labelUsedVariable   = "used variable"
	labelUsedMixin      = "used mixin"
)

// buildListing turns a report into output lines: unused variables, mixins and
// functions, then (when showUsed) used variables and mixins. Each group is
// sorted by path, then identifier.
func buildListing(r *unused.Report, showUsed bool) *output.Listing {
	listing := &output.Listing{
		Title:  "SCSS Symbols",
		Footer: summaryLine(r),
		Data:   r,
	}

	add := func(label string, occ []unused.Occurrence, problem bool) {
		for _, o := range unused.SortOccurrences(occ) {
			listing.Entries = append(listing.Entries, output.Entry{
				Label:   label,
				Path:    o.Path,
				ID:      o.ID,
				Line:    o.Line,
				Problem: problem,
			})
		}
	}

	add(labelUnusedVariable, r.Vars, true)
	add(labelUnusedMixin, r.Mixins, true)
	add(labelUnusedFunction, r.Functions, true)
	if showUsed {
		add(labelUsedVariable, r.UsedVars, false)
		add(labelUsedMixin, r.UsedMixins, false)
	}
	return listing
}
