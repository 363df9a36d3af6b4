package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/caiorcferreira/datajoin/internal/logging"
)

// Pipeline wires a reader routine and a chain of transform routines through
// channel pipes. Messages keep their order unless a routine reorders them.
type Pipeline struct {
	source   Routine
	routines []Routine
	buffer   int
}

// New creates a pipeline fed by source.
func New(source Routine) *Pipeline {
	return &Pipeline{
		source: source,
		buffer: DefaultBuffer,
	}
}

// Chain appends a routine after the current last stage.
func (s *Pipeline) Chain(r Routine) *Pipeline {
	s.routines = append(s.routines, r)

	return s
}

// WithBuffer sets the channel capacity between stages.
func (s *Pipeline) WithBuffer(size int) *Pipeline {
	s.buffer = size

	return s
}

// Start runs every routine and forwards the output of the last stage to
// out.Out(), which is closed once the last stage is drained. A failing
// routine closes its own output so downstream stages finish with what was
// already produced; the first routine error is returned after all routines
// have stopped.
func (s *Pipeline) Start(ctx context.Context, out Pipe) error {
	log := logging.With("pipeline")

	head := NewBufferedPipe(s.buffer)
	stages := make([]*ChannelPipe, len(s.routines))

	// Wire every channel before any routine starts writing.
	previousPipe := head
	for i := range s.routines {
		stages[i] = NewBufferedPipe(s.buffer)
		previousPipe.Chain(stages[i])
		previousPipe = stages[i]
	}

	var g errgroup.Group

	g.Go(func() error {
		defer head.Close()

		err := s.source.Start(ctx, head)
		if err != nil {
			log.Error().Err(err).Msg("source routine error")
		}

		return err
	})

	for i, routine := range s.routines {
		stepPipe := stages[i]

		g.Go(func() error {
			defer stepPipe.Close()

			err := routine.Start(ctx, stepPipe)
			if err != nil {
				log.Error().Err(err).Msg("routine error")
			}

			// unblock upstream stages when the routine stopped reading early
			for range stepPipe.In() {
			}

			return err
		})
	}

	g.Go(func() error {
		defer out.Close()

		for msg := range previousPipe.Out() {
			log.Trace().Str("id", msg.ID).Msg("pipeline forwarding message")

			select {
			case <-ctx.Done():
				return nil
			case out.Out() <- msg:
			}
		}

		return nil
	})

	return g.Wait()
}
