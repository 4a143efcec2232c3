package unused

import (
	"regexp"
	"strings"

	"github.com/panbanda/scss-unused/pkg/scss"
)

const (
	keywordMixin    = "mixin"
	keywordInclude  = "include"
	keywordFunction = "function"

	variableSigil = "$"
)

var (
	// identifierPattern matches a mixin or function name, which may carry a
	// module prefix (e.g. "some-mixin" or "amodule.some-mixin").
	identifierPattern   = regexp.MustCompile(`[a-zA-Z0-9_.-]+`)
	variablePattern     = regexp.MustCompile(`\$[a-zA-Z0-9_-]+`)
	functionCallPattern = regexp.MustCompile(`[a-zA-Z0-9-]+\(`)
)

// MatchVariables returns every `$name` reference in expr.
func MatchVariables(expr string) []string {
	return variablePattern.FindAllString(expr, -1)
}

// MatchFunctionCalls returns the name of every `name(` call in expr.
func MatchFunctionCalls(expr string) []string {
	calls := functionCallPattern.FindAllString(expr, -1)
	for i, call := range calls {
		calls[i] = call[:len(call)-1]
	}
	return calls
}

// MatchIdentifier returns the first identifier in at-rule params.
func MatchIdentifier(params string) (string, bool) {
	ident := identifierPattern.FindString(params)
	return ident, ident != ""
}

// MixinReference resolves the params of an @include to the local mixin name:
// a module-qualified reference keeps only its last dot segment.
func MixinReference(params string) (string, bool) {
	ident, ok := MatchIdentifier(params)
	if !ok {
		return "", false
	}
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		ident = ident[i+1:]
	}
	return ident, true
}

func occurrence(id, path string, n scss.Node) Occurrence {
	return Occurrence{ID: id, Path: path, Line: n.Pos().Line}
}

// DeclaredVariables collects every declaration whose property is a variable.
func DeclaredVariables(root *scss.Root, path string) []Occurrence {
	var vars []Occurrence
	root.WalkDecls(func(d *scss.Declaration) {
		if strings.HasPrefix(d.Prop, variableSigil) {
			vars = append(vars, occurrence(d.Prop, path, d))
		}
	})
	return vars
}

// UsedVariables collects every variable reference in the expressions of root.
func UsedVariables(root *scss.Root, path string) []Occurrence {
	var used []Occurrence
	VisitExpressions(root, func(expr string, n scss.Node) {
		for _, id := range MatchVariables(expr) {
			used = append(used, occurrence(id, path, n))
		}
	})
	return used
}

// DeclaredMixins collects the names of @mixin declarations.
func DeclaredMixins(root *scss.Root, path string) ([]Occurrence, error) {
	return collectAtRules(root, path, keywordMixin, MatchIdentifier)
}

// UsedMixins collects the local names referenced by @include.
func UsedMixins(root *scss.Root, path string) ([]Occurrence, error) {
	return collectAtRules(root, path, keywordInclude, MixinReference)
}

// DeclaredFunctions collects the names of @function declarations.
func DeclaredFunctions(root *scss.Root, path string) ([]Occurrence, error) {
	return collectAtRules(root, path, keywordFunction, func(params string) (string, bool) {
		ident, ok := MatchIdentifier(params)
		return strings.TrimSpace(ident), ok
	})
}

// UsedFunctions collects every function call in the expressions of root.
func UsedFunctions(root *scss.Root, path string) []Occurrence {
	var used []Occurrence
	VisitExpressions(root, func(expr string, n scss.Node) {
		for _, id := range MatchFunctionCalls(expr) {
			used = append(used, occurrence(id, path, n))
		}
	})
	return used
}

func collectAtRules(root *scss.Root, path, keyword string, match func(string) (string, bool)) ([]Occurrence, error) {
	var (
		idents []Occurrence
		err    error
	)
	root.WalkAtRules(keyword, func(a *scss.AtRule) {
		if err != nil {
			return
		}
		id, ok := match(a.Params)
		if !ok {
			err = &MalformedDeclarationError{Keyword: keyword, Params: a.Params, Line: a.Pos().Line}
			return
		}
		idents = append(idents, occurrence(id, path, a))
	})
	if err != nil {
		return nil, err
	}
	return idents, nil
}

// Extract runs every extractor over root.
func Extract(root *scss.Root, path string) (*FileSymbols, error) {
	fs := &FileSymbols{
		Path:          path,
		DeclaredVars:  DeclaredVariables(root, path),
		UsedVars:      UsedVariables(root, path),
		UsedFunctions: UsedFunctions(root, path),
	}

	var err error
	if fs.DeclaredMixins, err = DeclaredMixins(root, path); err != nil {
		return nil, err
	}
	if fs.UsedMixins, err = UsedMixins(root, path); err != nil {
		return nil, err
	}
	if fs.DeclaredFunctions, err = DeclaredFunctions(root, path); err != nil {
		return nil, err
	}
	return fs, nil
}

// ExtractSource parses content and extracts its symbols.
func ExtractSource(path, content string) (*FileSymbols, error) {
	root, err := scss.Parse(content)
	if err != nil {
		return nil, err
	}
	return Extract(root, path)
}
