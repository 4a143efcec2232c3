// Package source supplies stylesheet content to the analyzer.
package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource. The file handle is closed before Read
// returns, whether or not reading succeeded.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ResolverFunc adapts a function returning stylesheet text to ContentSource.
type ResolverFunc func(path string) (string, error)

// Read implements ContentSource.
func (f ResolverFunc) Read(path string) ([]byte, error) {
	content, err := f(path)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// MapSource serves content from memory, keyed by path.
// It is safe for concurrent reads.
type MapSource map[string]string

// Read implements ContentSource.
func (m MapSource) Read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

// ReadString reads path from src as text. Errors are not annotated with
// path; callers already report it.
func ReadString(src ContentSource, path string) (string, error) {
	data, err := src.Read(path)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return string(data), nil
}
