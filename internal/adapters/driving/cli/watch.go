package cli

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runFollowingSession runs fn while the session holder follows changes
// other processes make to the stored session. The watch stops when fn returns.
func runFollowingSession(ctx context.Context, fn func(ctx context.Context) error) error {
	if sessionWatcher == nil || sessionHolder == nil {
		return fn(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		return sessionHolder.Watch(runCtx, sessionWatcher)
	})
	g.Go(func() error {
		defer stop()
		return fn(runCtx)
	})
	return g.Wait()
}
