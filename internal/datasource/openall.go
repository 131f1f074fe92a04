package datasource

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OpenAll opens every source concurrently and returns the readers keyed
// by source ID. If any open fails, already-opened readers are closed and
// the first error is returned.
func OpenAll(ctx context.Context, sources []DataSource) (map[string]*Reader, error) {
	var mu sync.Mutex
	readers := make(map[string]*Reader, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := OpenReader(src)
			if err != nil {
				return fmt.Errorf("open %s: %w", src.ID, err)
			}
			mu.Lock()
			readers[src.ID] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, r := range readers {
			r.Close()
		}
		return nil, err
	}
	return readers, nil
}

// CloseAll closes every reader, returning the first error encountered.
func CloseAll(readers map[string]*Reader) error {
	var first error
	for _, r := range readers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
