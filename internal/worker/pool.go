// Package worker fans a fixed number of independent, indexed tasks out
// across a bounded goroutine pool and collects their results in order.
// Shape is adapted from the teacher's internal/batch scheduler: a work
// channel, errgroup.Group workers, and an indexed result slice written only
// by the goroutine that owns that index.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

// SlotError is a single task's failure, tagged with the slot index it came
// from, per spec §7's "message names the slot index".
type SlotError struct {
	Index int
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d: %v", e.Index, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// Func is one unit of work, given the slot index it is responsible for. The
// returned value is stored at that index in Run's result slice.
type Func func(ctx context.Context, index int) (any, error)

// Pool runs count independent tasks across workers goroutines. Progress, if
// non-nil, receives a single redrawing status line (slots completed /
// count) whenever it refers to a terminal — mirroring the teacher's
// isTerminal-gated refreshStatus/updateStatus behavior, purely cosmetic.
type Pool struct {
	Workers  int
	Progress Writer
}

// Writer is satisfied by *os.File; Run only calls Fd() to check isatty and
// Write to redraw the status line.
type Writer interface {
	Fd() uintptr
	Write(p []byte) (int, error)
}

// Run executes fn(ctx, i) for every i in [0, count), stopping at the first
// error. The first error is wrapped in a *SlotError naming the slot it came
// from and returned together with a nil result slice; results of slots that
// had already completed are not returned.
func (p *Pool) Run(ctx context.Context, count int, fn Func) ([]any, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > count && count > 0 {
		workers = count
	}

	results := make([]any, count)
	work := make(chan int, count)
	for i := 0; i < count; i++ {
		work <- i
	}
	close(work)

	eg, ctx := errgroup.WithContext(ctx)
	var (
		progressMu sync.Mutex
		completed  int
		lastDraw   time.Time
	)
	isTerminal := p.Progress != nil && isatty.IsTerminal(p.Progress.Fd())

	draw := func() {
		if !isTerminal {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		if time.Since(lastDraw) < 100*time.Millisecond && completed < count {
			return
		}
		lastDraw = time.Now()
		line := fmt.Sprintf("\r%d/%d slots", completed, count)
		fmt.Fprint(p.Progress, line+strings.Repeat(" ", 8))
	}

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for index := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := fn(ctx, index)
				if err != nil {
					return &SlotError{Index: index, Err: err}
				}
				results[index] = out
				progressMu.Lock()
				completed++
				progressMu.Unlock()
				draw()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if isTerminal {
		fmt.Fprintln(p.Progress)
	}
	return results, nil
}
