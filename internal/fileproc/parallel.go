// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// Stylesheet analysis is mostly file I/O, so oversubscribing helps.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Workers returns maxWorkers, or the default worker count when it is <= 0.
func Workers(maxWorkers int) int {
	if maxWorkers <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return maxWorkers
}

type indexed[T any] struct {
	index  int
	result T
}

// MapFilesFailFast processes files in parallel and returns results in the
// order of files. The first failing file cancels the context passed to the
// remaining calls, and its error is returned wrapped in a *ProcessingError.
// No partial results are returned on failure.
// If maxWorkers is <= 0, defaults to 2x NumCPU.
func MapFilesFailFast[T any](
	ctx context.Context,
	files []string,
	maxWorkers int,
	fn func(context.Context, string) (T, error),
	onProgress ProgressFunc,
) ([]T, error) {
	return MapFailFast(ctx, files, maxWorkers, func(path string) string { return path }, fn, onProgress)
}

// MapFailFast is MapFilesFailFast for arbitrary work items. pathOf names the
// file an item belongs to for error reporting.
func MapFailFast[I, T any](
	ctx context.Context,
	items []I,
	maxWorkers int,
	pathOf func(I) string,
	fn func(context.Context, I) (T, error),
	onProgress ProgressFunc,
) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[indexed[T]]().
		WithMaxGoroutines(Workers(maxWorkers)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, item := range items {
		p.Go(func(ctx context.Context) (indexed[T], error) {
			if err := ctx.Err(); err != nil {
				return indexed[T]{}, err
			}

			result, err := fn(ctx, item)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				return indexed[T]{}, &ProcessingError{Path: pathOf(item), Err: err}
			}
			return indexed[T]{index: i, result: result}, nil
		})
	}

	collected, err := p.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})
	results := make([]T, len(collected))
	for i, c := range collected {
		results[i] = c.result
	}
	return results, nil
}
