// Package pipeline triggers the items of a batch with bounded concurrency.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/AnyUserName/imgconv/internal/item"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Summary counts how a run ended.
type Summary struct {
	Succeeded int
	Failed    int
	Busy      int // already converting when the run reached them
	Canceled  int // never started because ctx ended
	Elapsed   time.Duration
}

// Total is the number of items the run looked at.
func (s Summary) Total() int { return s.Succeeded + s.Failed + s.Busy + s.Canceled }

// Runner triggers items, at most Workers at a time.
type Runner struct {
	workers int
	log     *zap.Logger
}

// New creates a runner. workers <= 0 means runtime.NumCPU().
func New(workers int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{workers: Limit(workers), log: log}
}

// Limit maps a requested worker count to a usable one: anything below 1
// means runtime.NumCPU().
func Limit(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

// Workers returns the concurrency limit.
func (r *Runner) Workers() int { return r.workers }

// Run triggers every item and waits for all of them. Individual failures are
// counted, not returned; they have already been reported by the item.
func (r *Runner) Run(ctx context.Context, items []*item.Item) Summary {
	start := time.Now()
	r.log.Debug("run started", zap.Int("items", len(items)), zap.Int("workers", r.workers))

	var (
		mu  sync.Mutex
		sum Summary
	)
	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, it := range items {
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				sum.Canceled++
				mu.Unlock()
				return nil
			}

			status, err := it.Trigger(ctx)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, item.ErrAlreadyInProgress):
				sum.Busy++
			case status == item.Succeeded:
				sum.Succeeded++
			default:
				sum.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	sum.Elapsed = time.Since(start)
	r.log.Debug("run finished",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("busy", sum.Busy),
		zap.Int("canceled", sum.Canceled),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum
}
