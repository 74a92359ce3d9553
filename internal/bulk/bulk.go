// Package bulk runs a worker over many items with bounded concurrency.
package bulk

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a Processor is built with limit <= 0.
const DefaultConcurrency = 5

// Processor caps how many workers run at once.
type Processor struct {
	limit int
}

// NewProcessor returns a Processor running at most limit workers at once.
func NewProcessor(limit int) *Processor {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Processor{limit: limit}
}

// Limit returns the concurrency cap.
func (p *Processor) Limit() int { return p.limit }

// Run starts min(limit, len(items)) lanes. Each lane claims the next
// unprocessed item in input order until none remain. Results are stored
// at their item's index, so the output lines up with items whatever the
// completion order. The first worker error cancels the other lanes and
// is returned.
func Run[In, Out any](ctx context.Context, p *Processor, items []In, worker func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	lanes := min(p.limit, max(len(items), 1))

	g, gctx := errgroup.WithContext(ctx)
	var next atomic.Int64
	for range lanes {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := worker(gctx, items[i])
				if err != nil {
					return err
				}
				out[i] = v
			}
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// Outcome is the result of one item of Collect.
type Outcome[In, Out any] struct {
	Index int
	Input In
	Value Out
	Err   error
}

type indexed[In any] struct {
	i  int
	in In
}

// Collect is Run without fail-fast: every item gets an Outcome, failed
// ones carry their error. Items not started before ctx is done carry
// ctx.Err().
func Collect[In, Out any](ctx context.Context, p *Processor, items []In, worker func(context.Context, In) (Out, error)) []Outcome[In, Out] {
	work := make([]indexed[In], len(items))
	for i, in := range items {
		work[i] = indexed[In]{i: i, in: in}
	}

	started := make([]bool, len(items))
	outcomes, err := Run(ctx, p, work, func(ctx context.Context, w indexed[In]) (Outcome[In, Out], error) {
		started[w.i] = true
		o := Outcome[In, Out]{Index: w.i, Input: w.in}
		o.Value, o.Err = worker(ctx, w.in)
		return o, nil
	})
	if err != nil {
		for i := range outcomes {
			if !started[i] {
				outcomes[i] = Outcome[In, Out]{Index: i, Input: items[i], Err: err}
			}
		}
	}
	return outcomes
}
