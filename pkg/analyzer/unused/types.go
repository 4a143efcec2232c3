package unused

import "sort"

// Kind classifies a stylesheet symbol.
type Kind string

const (
	KindVariable Kind = "variable"
	KindMixin    Kind = "mixin"
	KindFunction Kind = "function"
)

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Occurrence is one appearance of a symbol name at a declaration or use site.
// Two occurrences refer to the same symbol when their IDs are equal; Path and
// Line only locate the occurrence for reporting.
type Occurrence struct {
	ID   string `json:"id" yaml:"id" toon:"id"`
	Path string `json:"path" yaml:"path" toon:"path"`
	Line int    `json:"line" yaml:"line" toon:"line"`
}

// FileSymbols holds everything extracted from a single stylesheet.
type FileSymbols struct {
	Path              string
	DeclaredVars      []Occurrence
	UsedVars          []Occurrence
	DeclaredMixins    []Occurrence
	UsedMixins        []Occurrence
	DeclaredFunctions []Occurrence
	UsedFunctions     []Occurrence
}

// Summary provides aggregate counts for a report.
type Summary struct {
	TotalFiles        int `json:"total_files" yaml:"total_files" toon:"total_files"`
	DeclaredVars      int `json:"declared_vars" yaml:"declared_vars" toon:"declared_vars"`
	UnusedVars        int `json:"unused_vars" yaml:"unused_vars" toon:"unused_vars"`
	DeclaredMixins    int `json:"declared_mixins" yaml:"declared_mixins" toon:"declared_mixins"`
	UnusedMixins      int `json:"unused_mixins" yaml:"unused_mixins" toon:"unused_mixins"`
	DeclaredFunctions int `json:"declared_functions" yaml:"declared_functions" toon:"declared_functions"`
	UnusedFunctions   int `json:"unused_functions" yaml:"unused_functions" toon:"unused_functions"`
}

// Report is the result of analyzing a set of stylesheets. Vars, Mixins and
// Functions are declared but never used; the Used* slices list every use
// occurrence in input order.
type Report struct {
	Vars          []Occurrence `json:"vars" yaml:"vars" toon:"vars"`
	Mixins        []Occurrence `json:"mixins" yaml:"mixins" toon:"mixins"`
	Functions     []Occurrence `json:"functions" yaml:"functions" toon:"functions"`
	UsedVars      []Occurrence `json:"used_vars" yaml:"used_vars" toon:"used_vars"`
	UsedMixins    []Occurrence `json:"used_mixins" yaml:"used_mixins" toon:"used_mixins"`
	UsedFunctions []Occurrence `json:"used_functions" yaml:"used_functions" toon:"used_functions"`
	Summary       Summary      `json:"summary" yaml:"summary" toon:"summary"`
	Fingerprint   string       `json:"fingerprint" yaml:"fingerprint" toon:"fingerprint"`
}

// HasUnused reports whether any variable, mixin or function is unused.
func (r *Report) HasUnused() bool {
	return r.TotalUnused() > 0
}

// TotalUnused returns the number of unused declarations of all kinds.
func (r *Report) TotalUnused() int {
	return len(r.Vars) + len(r.Mixins) + len(r.Functions)
}

// SortOccurrences returns a copy of occ ordered by path, then ID, then line.
func SortOccurrences(occ []Occurrence) []Occurrence {
	sorted := make([]Occurrence, len(occ))
	copy(sorted, occ)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Line < b.Line
	})
	return sorted
}
