package unused

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/scss-unused/pkg/scss"
)

func ids(occ []Occurrence) []string {
	out := make([]string, 0, len(occ))
	for _, o := range occ {
		out = append(out, o.ID)
	}
	return out
}

func mustParse(t *testing.T, src string) *scss.Root {
	t.Helper()
	root, err := scss.Parse(src)
	require.NoError(t, err)
	return root
}

func TestMatchVariables(t *testing.T) {
	assert.Equal(t, []string{"$a", "$b-c", "$d_e"}, MatchVariables("$a + $b-c * $d_e"))
	assert.Equal(t, []string{"$x"}, MatchVariables("prefix-#{$x}-suffix"))
	assert.Nil(t, MatchVariables("1px solid red"))
}

func TestMatchFunctionCalls(t *testing.T) {
	assert.Equal(t, []string{"calc"}, MatchFunctionCalls("calc(1px + $gap)"))
	assert.Equal(t, []string{"darken", "rgba"}, MatchFunctionCalls("darken(rgba(0,0,0,.5), 10%)"))
	// a space breaks the call
	assert.Nil(t, MatchFunctionCalls("foo (1)"))
	// the underscore is not part of the call pattern
	assert.Equal(t, []string{"b"}, MatchFunctionCalls("a_b(1)"))
}

func TestMatchIdentifier(t *testing.T) {
	id, ok := MatchIdentifier("button-variant($bg, $fg)")
	require.True(t, ok)
	assert.Equal(t, "button-variant", id)

	id, ok = MatchIdentifier("  theme.rounded ")
	require.True(t, ok)
	assert.Equal(t, "theme.rounded", id)

	_, ok = MatchIdentifier("")
	assert.False(t, ok)
	_, ok = MatchIdentifier("()")
	assert.False(t, ok)
}

func TestMixinReference(t *testing.T) {
	id, ok := MixinReference("theme.rounded(4px)")
	require.True(t, ok)
	assert.Equal(t, "rounded", id)

	id, ok = MixinReference("a.b.c")
	require.True(t, ok)
	assert.Equal(t, "c", id)

	id, ok = MixinReference("plain")
	require.True(t, ok)
	assert.Equal(t, "plain", id)

	_, ok = MixinReference("")
	assert.False(t, ok)
}

func TestDeclaredVariables(t *testing.T) {
	root := mustParse(t, `$a: 1; $b: 2 !default; .x { $local: 3; color: red; }`)
	vars := DeclaredVariables(root, "a.scss")

	assert.Equal(t, []string{"$a", "$b", "$local"}, ids(vars))
	for _, v := range vars {
		assert.Equal(t, "a.scss", v.Path)
	}
}

func TestUsedVariables(t *testing.T) {
	root := mustParse(t, `$a: $b; .x-#{$c} { color: $d; } @if $e { .y { margin: 0; } }`)
	assert.Equal(t, []string{"$b", "$c", "$d", "$e"}, ids(UsedVariables(root, "a.scss")))
}

func TestUsedVariables_Interpolation(t *testing.T) {
	root := mustParse(t, `.a { content: "prefix-#{$x}-suffix"; }`)
	assert.Equal(t, []string{"$x"}, ids(UsedVariables(root, "a.scss")))
}

func TestUsedVariables_NotFromDeclarationParams(t *testing.T) {
	root := mustParse(t, `@mixin m($arg) { color: red; } @function f($n) { @return 1; }`)
	assert.Empty(t, UsedVariables(root, "a.scss"))
}

func TestDeclaredMixins(t *testing.T) {
	root := mustParse(t, `@mixin foo() { } @mixin bar { } @mixin theme.dotted($x) { }`)
	mixins, err := DeclaredMixins(root, "m.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "theme.dotted"}, ids(mixins))
}

func TestUsedMixins(t *testing.T) {
	root := mustParse(t, `.a { @include foo(); @include mod.bar; @include baz { color: red; } }`)
	mixins, err := UsedMixins(root, "m.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "baz"}, ids(mixins))
}

func TestDeclaredFunctions(t *testing.T) {
	root := mustParse(t, `@function double($n) { @return $n * 2; } @function  spaced ($x) { @return $x; }`)
	fns, err := DeclaredFunctions(root, "f.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"double", "spaced"}, ids(fns))
}

func TestUsedFunctions(t *testing.T) {
	root := mustParse(t, `.a { width: calc(1px + $gap); height: double(2px); } @include m(half(1));`)
	assert.Equal(t, []string{"calc", "double", "m", "half"}, ids(UsedFunctions(root, "f.scss")))
}

func TestExtractors_MalformedDeclaration(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		keyword string
		extract func(*scss.Root, string) ([]Occurrence, error)
	}{
		{"empty mixin", `@mixin { color: red; }`, "mixin", DeclaredMixins},
		{"mixin without identifier", `@mixin () { color: red; }`, "mixin", DeclaredMixins},
		{"empty function", `@function { @return 1; }`, "function", DeclaredFunctions},
		{"function without identifier", `@function ($a) { @return 1; }`, "function", DeclaredFunctions},
		{"empty include", `.a { @include; }`, "include", UsedMixins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, err := tt.extract(mustParse(t, tt.src), "bad.scss")
			require.Error(t, err)
			assert.Nil(t, occ)
			assert.True(t, errors.Is(err, ErrMalformedDeclaration))

			var malformed *MalformedDeclarationError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.keyword, malformed.Keyword)
			assert.Equal(t, 1, malformed.Line)
		})
	}
}

func TestMalformedDeclarationError_Message(t *testing.T) {
	err := &MalformedDeclarationError{Keyword: "mixin", Params: "()", Line: 3}
	assert.Equal(t, `line 3: found @mixin with no identifier (params "()")`, err.Error())
	assert.False(t, errors.Is(err, errors.New("malformed declaration")))
}

func TestExtract(t *testing.T) {
	src := `$unused: 1;
$used: 2;
@mixin foo() { color: red; }
@function double($n) { @return $n * 2; }
.a {
  color: $used;
  width: double(1px);
  @include foo();
}`
	fs, err := ExtractSource("all.scss", src)
	require.NoError(t, err)

	assert.Equal(t, "all.scss", fs.Path)
	assert.Equal(t, []string{"$unused", "$used"}, ids(fs.DeclaredVars))
	assert.Equal(t, []string{"$n", "$used"}, ids(fs.UsedVars))
	assert.Equal(t, []string{"foo"}, ids(fs.DeclaredMixins))
	assert.Equal(t, []string{"foo"}, ids(fs.UsedMixins))
	assert.Equal(t, []string{"double"}, ids(fs.DeclaredFunctions))
	assert.Equal(t, []string{"double", "foo"}, ids(fs.UsedFunctions))

	assert.Equal(t, 1, fs.DeclaredVars[0].Line)
	assert.Equal(t, 6, fs.UsedVars[1].Line)
	assert.Equal(t, 8, fs.UsedMixins[0].Line)
}

func TestExtractSource_ParseError(t *testing.T) {
	_, err := ExtractSource("broken.scss", ".a { color: red;")
	require.Error(t, err)

	var parseErr *scss.ParseError
	assert.True(t, errors.As(err, &parseErr))
}
