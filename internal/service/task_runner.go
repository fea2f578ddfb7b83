package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// TaskRunner executes work detached from the request that scheduled it.
type TaskRunner interface {
	Go(name string, task func(ctx context.Context))
}

// BackgroundRunner tracks detached tasks so shutdown can wait for them.
type BackgroundRunner struct {
	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBackgroundRunner() *BackgroundRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundRunner{ctx: ctx, cancel: cancel}
}

func (r *BackgroundRunner) Go(name string, task func(ctx context.Context)) {
	r.wg.Go(func() {
		var catcher panics.Catcher
		catcher.Try(func() { task(r.ctx) })
		if recovered := catcher.Recovered(); recovered != nil {
			log.Error().Str("task", name).Str("panic", recovered.String()).Msg("Background task panicked")
		}
	})
}

// Wait blocks until every scheduled task has returned.
func (r *BackgroundRunner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for running tasks until ctx expires, then cancels whatever is left.
func (r *BackgroundRunner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
