package chunking

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// ChunkFunc processes a single window.  It is called from multiple goroutines and
// must do its own reading; a returned error aborts the traversal.
type ChunkFunc func(ctx context.Context, w ChunkWindow) error

// ForEach calls fn for every window of the config using at most workers goroutines
// (runtime.NumCPU() if workers <= 0).  Windows are handed out in row order, but
// may complete in any order.  The first error cancels the context passed to the
// remaining calls and is returned unchanged.
func ForEach(ctx context.Context, cfg *ChunkConfig, workers int, fn ChunkFunc) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	timedLog := raster.NewTimeLog()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var dispatched int
	for w := range cfg.Chunks() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(gctx, w)
		})
		dispatched++
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	timedLog.Debugf("Processed %d chunks with %d workers", dispatched, workers)
	return nil
}
