package unused

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Reduce merges per-file symbols into a corpus-wide report. Symbols resolve
// globally: a use in any file marks every same-named declaration as used.
func Reduce(files ...*FileSymbols) *Report {
	var declaredVars, usedVars []Occurrence
	var declaredMixins, usedMixins []Occurrence
	var declaredFunctions, usedFunctions []Occurrence
	total := 0

	for _, f := range files {
		if f == nil {
			continue
		}
		total++
		declaredVars = append(declaredVars, f.DeclaredVars...)
		usedVars = append(usedVars, f.UsedVars...)
		declaredMixins = append(declaredMixins, f.DeclaredMixins...)
		usedMixins = append(usedMixins, f.UsedMixins...)
		declaredFunctions = append(declaredFunctions, f.DeclaredFunctions...)
		usedFunctions = append(usedFunctions, f.UsedFunctions...)
	}

	report := &Report{
		Vars:          Unused(declaredVars, usedVars),
		Mixins:        Unused(declaredMixins, usedMixins),
		Functions:     Unused(declaredFunctions, usedFunctions),
		UsedVars:      orEmpty(usedVars),
		UsedMixins:    orEmpty(usedMixins),
		UsedFunctions: orEmpty(usedFunctions),
	}
	report.Summary = Summary{
		TotalFiles:        total,
		DeclaredVars:      len(declaredVars),
		UnusedVars:        len(report.Vars),
		DeclaredMixins:    len(declaredMixins),
		UnusedMixins:      len(report.Mixins),
		DeclaredFunctions: len(declaredFunctions),
		UnusedFunctions:   len(report.Functions),
	}
	report.Fingerprint = fingerprint(report)
	return report
}

// Unused returns the declared occurrences whose ID never appears in used.
// IDs compare by exact, case-sensitive text.
func Unused(declared, used []Occurrence) []Occurrence {
	seen := make(map[string]struct{}, len(used))
	for _, u := range used {
		seen[u.ID] = struct{}{}
	}

	unused := make([]Occurrence, 0)
	for _, d := range declared {
		if _, ok := seen[d.ID]; !ok {
			unused = append(unused, d)
		}
	}
	return unused
}

func orEmpty(occ []Occurrence) []Occurrence {
	if occ == nil {
		return []Occurrence{}
	}
	return occ
}

// fingerprint hashes the unused symbols independent of input order. Lines are
// left out so edits that only move code keep the same fingerprint.
func fingerprint(r *Report) string {
	h := blake3.New()
	groups := []struct {
		kind Kind
		occ  []Occurrence
	}{
		{KindVariable, r.Vars},
		{KindMixin, r.Mixins},
		{KindFunction, r.Functions},
	}
	for _, g := range groups {
		for _, o := range SortOccurrences(g.occ) {
			fmt.Fprintf(h, "%s\x00%s\x00%s\n", g.kind, o.Path, o.ID)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
