package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"

	"github.com/panbanda/scss-unused/pkg/config"
)

// Scanner finds stylesheet files from paths, directories and glob patterns.
type Scanner struct {
	config   *config.Config
	matchers map[string]gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{
		config:   cfg,
		matchers: make(map[string]gitignore.Matcher),
	}
}

// PathError indicates an invalid path or pattern.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Expand resolves each pattern to concrete files. An existing file is kept as
// is, an existing directory is scanned recursively, and anything else is
// treated as a glob. A pattern that matches nothing is not an error. The
// result is de-duplicated and sorted.
func (s *Scanner) Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(paths ...string) {
		for _, p := range paths {
			p = filepath.Clean(p)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, pattern := range patterns {
		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			found, err := s.ScanDir(pattern)
			if err != nil {
				return nil, &ScanError{Path: pattern, Err: err}
			}
			add(found...)
		case err == nil:
			add(pattern)
		case errors.Is(err, fs.ErrNotExist):
			found, err := s.Glob(pattern)
			if err != nil {
				return nil, err
			}
			add(found...)
		default:
			return nil, &PathError{Path: pattern, Err: err}
		}
	}

	sort.Strings(files)
	return files, nil
}

// Glob returns the files matching pattern. `*`, `?`, `[...]` and `{a,b}`
// never cross a path separator; `**` matches any number of directories,
// including none.
func (s *Scanner) Glob(pattern string) ([]string, error) {
	pattern = path.Clean(filepath.ToSlash(pattern))

	g, err := glob.Compile(expandGlobstar(pattern), '/')
	if err != nil {
		return nil, &PathError{Path: pattern, Err: err}
	}

	base := staticPrefix(pattern)
	if base == pattern {
		// No meta characters and the path does not exist.
		return nil, nil
	}

	root := filepath.FromSlash(base)
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &PathError{Path: pattern, Err: err}
	}

	var matches []string
	err = s.walk(root, func(path string) {
		if g.Match(filepath.ToSlash(path)) {
			matches = append(matches, path)
		}
	})
	if err != nil {
		return nil, &ScanError{Path: base, Err: err}
	}
	return matches, nil
}

// ScanDir recursively scans a directory for files with a configured extension.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 64)
	err := s.walk(root, func(path string) {
		if s.config.HasExtension(path) {
			files = append(files, path)
		}
	})
	return files, err
}

// walk visits every regular file under root that is not excluded.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) walk(root string, visit func(path string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return err
	}

	excluded := s.excluder(absRoot)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil || info.IsDir() {
				return nil
			}
		}

		if d.IsDir() {
			if path != root && (s.config.ShouldExcludeDir(d.Name()) || excluded(path, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(path, false) {
			return nil
		}
		visit(path)
		return nil
	})
}

// excluder returns a predicate applying config exclude patterns and, when
// enabled, the .gitignore files of the repository containing root.
func (s *Scanner) excluder(absRoot string) func(path string, isDir bool) bool {
	matchRoot := absRoot
	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(absRoot); gitRoot != "" {
			matchRoot = gitRoot
		}
	}

	m := s.matcher(matchRoot)
	if m == nil {
		return func(string, bool) bool { return false }
	}

	return func(path string, isDir bool) bool {
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		rel, err := filepath.Rel(matchRoot, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return false
		}
		return m.Match(strings.Split(rel, string(filepath.Separator)), isDir)
	}
}

// matcher builds the gitignore matcher for a directory once and caches it.
func (s *Scanner) matcher(root string) gitignore.Matcher {
	if m, ok := s.matchers[root]; ok {
		return m
	}

	var patterns []gitignore.Pattern

	// Config exclude patterns use gitignore syntax
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns recursively reads every .gitignore below root
	if s.config.Exclude.Gitignore && findGitRoot(root) == root {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}

	var m gitignore.Matcher
	if len(patterns) > 0 {
		m = gitignore.NewMatcher(patterns)
	}
	s.matchers[root] = m
	return m
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// staticPrefix returns the leading directory segments of a slash-separated
// pattern that contain no glob meta characters, or "." when there are none.
func staticPrefix(pattern string) string {
	segments := strings.Split(pattern, "/")
	n := 0
	for n < len(segments) && !strings.ContainsAny(segments[n], `*?[{\`) {
		n++
	}
	if n == len(segments) {
		return pattern
	}
	prefix := strings.Join(segments[:n], "/")
	if prefix == "" {
		if strings.HasPrefix(pattern, "/") {
			return "/"
		}
		return "."
	}
	return prefix
}

// expandGlobstar rewrites `**/` so it also matches zero directories.
func expandGlobstar(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "/**/", "{/,/**/}")
	if strings.HasPrefix(pattern, "**/") {
		pattern = "{,**/}" + strings.TrimPrefix(pattern, "**/")
	}
	return pattern
}

// Roots returns the existing directories that contain every file a set of
// patterns can match: the directory itself, a file's parent directory, or a
// glob's static prefix.
func Roots(patterns []string) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, pattern := range patterns {
		dir := pattern
		if info, err := os.Stat(pattern); err == nil {
			if !info.IsDir() {
				dir = filepath.Dir(pattern)
			}
		} else {
			dir = filepath.FromSlash(staticPrefix(path.Clean(filepath.ToSlash(pattern))))
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
		}

		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		roots = append(roots, dir)
	}
	sort.Strings(roots)
	return roots
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged. A file that cannot be
// stat'ed fails the whole call.
func FilterBySize(files []string, maxSize int64) ([]string, int, error) {
	if maxSize <= 0 {
		return files, 0, nil
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, 0, err
		}
		if info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped, nil
}
