// Package runner parses document batches on a bounded worker pool.
// Workers share no mutable state; results are collected after the
// barrier so protocol resolution always sees the complete batch.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/loomkit/loom/document"
)

// ParseAll reads and parses every path concurrently. Paths are stored
// on the resulting documents as given. Per-document read failures are
// collected; parsing itself never fails.
func ParseAll(ctx context.Context, root string, paths []string) ([]*document.Document, []error) {
	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	type result struct {
		doc *document.Document
		err error
	}

	jobs := make(chan string)
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
				if err != nil {
					results <- result{err: fmt.Errorf("read %s: %w", rel, err)}
					continue
				}
				results <- result{doc: document.Parse(rel, string(raw))}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- p:
			}
		}
	}()

	wg.Wait()
	close(results)

	var docs []*document.Document
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		docs = append(docs, r.doc)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	// Workers finish in arbitrary order; resolution wants determinism.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, errs
}
