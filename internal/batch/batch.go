//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package batch processes many workflow files on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"
)

// Result is the outcome for one path.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Func handles a single path.
type Func[T any] func(ctx context.Context, path string) (T, error)

type task[T any] struct {
	idx     int
	ctx     context.Context
	path    string
	fn      Func[T]
	results []Result[T]
	wg      *sync.WaitGroup
}

// Run calls fn for every path using at most workers goroutines. Results keep
// the order of paths. Paths not started before ctx is cancelled report
// ctx.Err().
func Run[T any](ctx context.Context, paths []string, workers int, fn Func[T]) ([]Result[T], error) {
	if workers <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	results := make([]Result[T], len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	pool, err := ants.NewPoolWithFunc(workers, func(args any) {
		t, ok := args.(*task[T])
		if !ok {
			panic("batch pool args type error")
		}
		defer t.wg.Done()
		t.results[t.idx] = runOne(t.ctx, t.path, t.fn)
	})
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for idx, path := range paths {
		wg.Add(1)
		t := &task[T]{idx: idx, ctx: ctx, path: path, fn: fn, results: results, wg: &wg}
		if err := pool.Invoke(t); err != nil {
			wg.Done()
			results[idx] = Result[T]{Path: path, Err: fmt.Errorf("submit %s: %w", path, err)}
		}
	}
	wg.Wait()
	return results, nil
}

func runOne[T any](ctx context.Context, path string, fn Func[T]) (res Result[T]) {
	res.Path = path
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic processing %s: %v", path, r)
		}
	}()
	res.Value, res.Err = fn(ctx, path)
	return res
}

// Failed counts results carrying an error.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Expand resolves doublestar patterns (e.g. "flows/**/*.json") to file paths.
// Each pattern's matches are sorted; a path matched twice is kept once. A
// pattern without meta characters is returned as is so a missing file is
// reported by the caller.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			matches = []string{pattern}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
