package unused

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/scss-unused/internal/fileproc"
	"github.com/panbanda/scss-unused/pkg/scss"
	"github.com/panbanda/scss-unused/pkg/source"
)

func analyzeMap(t *testing.T, files source.MapSource, paths ...string) (*Report, error) {
	t.Helper()
	a := New(WithSource(files), WithMaxWorkers(2))
	defer a.Close()
	return a.Analyze(context.Background(), paths)
}

func TestAnalyze_UnusedVariableTaggedWithPath(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"a.scss": "$lonely: 1;",
		"b.scss": ".b { color: red; }",
	}, "a.scss", "b.scss")
	require.NoError(t, err)

	require.Len(t, report.Vars, 1)
	assert.Equal(t, "$lonely", report.Vars[0].ID)
	assert.Equal(t, "a.scss", report.Vars[0].Path)
}

func TestAnalyze_CrossFileResolution(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"_vars.scss": "$brand: #f00;",
		"main.scss":  ".a { color: $brand; }",
	}, "_vars.scss", "main.scss")
	require.NoError(t, err)

	assert.Empty(t, report.Vars)
	assert.Equal(t, []Occurrence{{ID: "$brand", Path: "main.scss", Line: 1}}, report.UsedVars)
}

func TestAnalyze_InterpolationCountsAsUse(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"a.scss": `$x: 1; .a { content: "prefix-#{$x}-suffix"; }`,
	}, "a.scss")
	require.NoError(t, err)
	assert.Empty(t, report.Vars)
}

func TestAnalyze_CommentedOutUseInMap(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"a.scss": "$ghost: 1;\n$theme: (\n  primary: red, // was $ghost\n  secondary: blue\n);\n.a { color: map-get($theme, primary); }",
	}, "a.scss")
	require.NoError(t, err)

	assert.Equal(t, []Occurrence{{ID: "$ghost", Path: "a.scss", Line: 1}}, report.Vars)
}

func TestAnalyze_QualifiedInclude(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"_theme.scss": "@mixin rounded($r) { border-radius: $r; }",
		"main.scss":   "@use 'theme';\n.a { @include theme.rounded(4px); }",
	}, "_theme.scss", "main.scss")
	require.NoError(t, err)

	assert.Empty(t, report.Mixins)
	assert.Equal(t, []string{"rounded"}, ids(report.UsedMixins))
}

func TestAnalyze_FunctionCallVersusVariable(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"a.scss": ".a { width: calc(1px + $gap); }",
	}, "a.scss")
	require.NoError(t, err)

	assert.Equal(t, []string{"$gap"}, ids(report.UsedVars))
	assert.Equal(t, []string{"calc"}, ids(report.UsedFunctions))
}

func TestAnalyze_MalformedDeclarationAborts(t *testing.T) {
	for _, src := range []string{"@mixin { color: red; }", "@function () { @return 1; }"} {
		report, err := analyzeMap(t, source.MapSource{
			"good.scss": "$a: 1;",
			"bad.scss":  src,
		}, "good.scss", "bad.scss")

		assert.Nil(t, report)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedDeclaration))

		var procErr *fileproc.ProcessingError
		require.True(t, errors.As(err, &procErr))
		assert.Equal(t, "bad.scss", procErr.Path)
	}
}

func TestAnalyze_ParseErrorAborts(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{"bad.scss": ".a { color: red;"}, "bad.scss")

	assert.Nil(t, report)
	var parseErr *scss.ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Contains(t, err.Error(), "bad.scss: ")
}

func TestAnalyze_ReadErrorAborts(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{}, "missing.scss")

	assert.Nil(t, report)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "missing.scss: read: open missing.scss: file does not exist", err.Error())
}

func TestAnalyze_Idempotent(t *testing.T) {
	files := source.MapSource{
		"a.scss": "$a: 1; $b: 2; @mixin m { } @function f() { @return 1; }",
		"b.scss": ".x { color: $a; }",
		"c.scss": "$c: f();",
	}
	paths := []string{"a.scss", "b.scss", "c.scss"}

	first, err := analyzeMap(t, files, paths...)
	require.NoError(t, err)
	second, err := analyzeMap(t, files, paths...)
	require.NoError(t, err)

	assert.ElementsMatch(t, first.Vars, second.Vars)
	assert.ElementsMatch(t, first.Mixins, second.Mixins)
	assert.ElementsMatch(t, first.Functions, second.Functions)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestAnalyze_EndToEndVariables(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"style.scss": "$unused: 1; $used: 2; .a { color: $used; }",
	}, "style.scss")
	require.NoError(t, err)

	assert.Equal(t, []Occurrence{{ID: "$unused", Path: "style.scss", Line: 1}}, report.Vars)
	assert.Contains(t, report.UsedVars, Occurrence{ID: "$used", Path: "style.scss", Line: 1})
}

func TestAnalyze_EndToEndMixins(t *testing.T) {
	report, err := analyzeMap(t, source.MapSource{
		"style.scss": "@mixin foo() { color: red; } @mixin bar() { color: blue; } .a { @include foo(); }",
	}, "style.scss")
	require.NoError(t, err)

	assert.Equal(t, []string{"bar"}, ids(report.Mixins))
}

func TestAnalyze_DottedMixinDeclarationNeverMatches(t *testing.T) {
	// Declarations keep the dotted name while includes keep only the last
	// segment, so a dotted declaration always reports as unused.
	report, err := analyzeMap(t, source.MapSource{
		"a.scss": "@mixin theme.rounded { } .a { @include theme.rounded; @include rounded; }",
	}, "a.scss")
	require.NoError(t, err)

	assert.Equal(t, []string{"theme.rounded"}, ids(report.Mixins))
	assert.Equal(t, []string{"rounded", "rounded"}, ids(report.UsedMixins))
}

func TestAnalyze_ResultsFollowInputOrder(t *testing.T) {
	files := source.MapSource{}
	var paths []string
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		path := name + ".scss"
		files[path] = "$" + name + ": 1;"
		paths = append(paths, path)
	}

	report, err := analyzeMap(t, files, paths...)
	require.NoError(t, err)
	assert.Equal(t, []string{"$e", "$d", "$c", "$b", "$a"}, ids(report.Vars))
}

func TestAnalyze_NoFiles(t *testing.T) {
	report, err := New().Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, report.HasUnused())
	assert.Equal(t, 0, report.Summary.TotalFiles)
}

func TestAnalyze_Filesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.scss")
	require.NoError(t, os.WriteFile(path, []byte("$a: 1;\n@function f() { @return 1; }"), 0644))

	report, err := New().Analyze(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, []Occurrence{{ID: "$a", Path: path, Line: 1}}, report.Vars)
	assert.Equal(t, []Occurrence{{ID: "f", Path: path, Line: 2}}, report.Functions)
}

func TestAnalyze_ProgressAndLogger(t *testing.T) {
	var calls atomic.Int32
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := New(
		WithSource(source.MapSource{"a.scss": "$a: 1;", "b.scss": "$b: $a;"}),
		WithProgress(func() { calls.Add(1) }),
		WithLogger(logger),
	)
	_, err := a.Analyze(context.Background(), []string{"a.scss", "b.scss"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, buf.String(), "extracted symbols")
	assert.Contains(t, buf.String(), "path=a.scss")
	assert.Contains(t, buf.String(), "reduced symbols")
}

func TestAnalyze_ResolverFunc(t *testing.T) {
	resolver := source.ResolverFunc(func(path string) (string, error) {
		return "$" + filepath.Base(path)[:1] + ": 1;", nil
	})

	report, err := New(WithSource(resolver)).Analyze(context.Background(), []string{"x.scss"})
	require.NoError(t, err)
	assert.Equal(t, []string{"$x"}, ids(report.Vars))
}

func TestAnalyzeInputs(t *testing.T) {
	inputs := []Input{
		{Path: "a.scss", Content: "$a: 1; $b: 2;"},
		{Path: "b.scss", Content: ".b { color: $a; }"},
	}

	report, err := New().AnalyzeInputs(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, []Occurrence{{ID: "$b", Path: "a.scss", Line: 1}}, report.Vars)
	assert.Equal(t, 2, report.Summary.TotalFiles)
}

func TestAnalyzeInputs_Error(t *testing.T) {
	_, err := New().AnalyzeInputs(context.Background(), []Input{
		{Path: "bad.scss", Content: ".a { @include; }"},
	})

	var procErr *fileproc.ProcessingError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "bad.scss", procErr.Path)
	assert.True(t, errors.Is(err, ErrMalformedDeclaration))
}

func TestAnalyzeFile(t *testing.T) {
	a := New(WithSource(source.MapSource{"a.scss": "$a: 1; .x { color: $b; }"}))

	fs, err := a.AnalyzeFile("a.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"$a"}, ids(fs.DeclaredVars))
	assert.Equal(t, []string{"$b"}, ids(fs.UsedVars))

	_, err = a.AnalyzeFile("missing.scss")
	assert.Error(t, err)
}

func TestNew_NilOptionsKeepDefaults(t *testing.T) {
	a := New(WithSource(nil), WithLogger(nil))
	assert.NotNil(t, a.source)
	assert.NotNil(t, a.logger)
}
