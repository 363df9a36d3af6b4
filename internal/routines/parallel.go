package routines

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

type ParallelRoutine struct {
	routine        pipeline.Routine
	maxConcurrency int
}

var _ pipeline.Routine = ParallelRoutine{}

// Parallel runs maxConcurrency copies of r over the same input. Output
// order across copies is not preserved.
func Parallel(r pipeline.Routine, maxConcurrency int) ParallelRoutine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return ParallelRoutine{
		routine:        r,
		maxConcurrency: maxConcurrency,
	}
}

func (p ParallelRoutine) Start(ctx context.Context, pipe pipeline.Pipe) error {
	defer pipe.Close()

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.maxConcurrency; i++ {
		sp := pipeline.NewChanPipe()

		// feeders compete for input, so an idle worker picks up the next message
		g.Go(func() error {
			defer close(sp.In())

			for msg := range pipe.In() {
				select {
				case <-ctx.Done():
					return nil
				case sp.In() <- msg:
				}
			}
			return nil
		})

		g.Go(func() error {
			defer sp.Close()
			return p.routine.Start(ctx, sp)
		})

		g.Go(func() error {
			for msg := range sp.Out() {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case pipe.Out() <- msg:
				}
			}
			return nil
		})
	}

	return g.Wait()
}
