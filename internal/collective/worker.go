package collective

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caiorcferreira/datajoin/internal/dataset"
	"github.com/caiorcferreira/datajoin/internal/logging"
	"github.com/caiorcferreira/datajoin/internal/metrics"
)

// Summary describes one worker's run.
type Summary struct {
	Rank      int
	Elements  int
	IdleSteps int
	Steps     int
}

// Worker drives one joined pipeline in lockstep with the other ranks of its
// group.
type Worker[T any] struct {
	rank     int
	group    *Group
	joined   *dataset.DetectEndIterator[T]
	recorder *metrics.Recorder
	step     func(context.Context, T) error
}

// NewWorker joins it so the worker knows it released its last element
// without an extra pull.
func NewWorker[T any](group *Group, rank int, it dataset.Iterator[T]) *Worker[T] {
	return &Worker[T]{
		rank:   rank,
		group:  group,
		joined: dataset.Join(it),
	}
}

func (w *Worker[T]) WithRecorder(r *metrics.Recorder) *Worker[T] {
	w.recorder = r
	return w
}

// OnElement sets the per-element step. An error stops the worker.
func (w *Worker[T]) OnElement(fn func(context.Context, T) error) *Worker[T] {
	w.step = fn
	return w
}

func (w *Worker[T]) Rank() int {
	return w.rank
}

// EndState is the register of the worker's joined pipeline.
func (w *Worker[T]) EndState() *dataset.EndState {
	return w.joined.State()
}

// Run consumes the shard, joining the group every step, until a round in
// which no rank has data left.
func (w *Worker[T]) Run(ctx context.Context) (Summary, error) {
	defer w.joined.Close()

	log := logging.With("collective").With().Int("rank", w.rank).Logger()
	summary := Summary{Rank: w.rank}

	hasData := true
	for {
		var err error
		hasData, err = w.advance(ctx, hasData, &summary)
		if err != nil {
			w.group.Abort()
			return summary, err
		}

		active, err := w.group.AllReduceAny(ctx, w.rank, hasData)
		if err != nil {
			return summary, fmt.Errorf("worker %d step %d: %w", w.rank, summary.Steps, err)
		}

		summary.Steps++
		w.recorder.Step(w.rank)
		w.recorder.EndState(w.rank, w.joined.Ended())

		logStep(log, summary, hasData, active)

		if !active {
			break
		}
	}

	log.Info().
		Int("elements", summary.Elements).
		Int("idle_steps", summary.IdleSteps).
		Int("steps", summary.Steps).
		Msg("worker finished")

	return summary, nil
}

// advance performs the local half of one step and reports whether the
// worker still has data after it.
func (w *Worker[T]) advance(ctx context.Context, hasData bool, summary *Summary) (bool, error) {
	if !hasData {
		summary.IdleSteps++
		w.recorder.Idle(w.rank)
		return false, nil
	}

	elem, err := w.joined.Next(ctx)
	if errors.Is(err, io.EOF) {
		// only reachable on an empty shard
		summary.IdleSteps++
		w.recorder.Idle(w.rank)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("worker %d: read element %d: %w", w.rank, summary.Elements, err)
	}

	summary.Elements++
	w.recorder.Element(w.rank)

	if w.step != nil {
		if err := w.step(ctx, elem); err != nil {
			return false, fmt.Errorf("worker %d: step on element %d: %w", w.rank, summary.Elements-1, err)
		}
	}

	return !w.joined.Ended(), nil
}

func logStep(log zerolog.Logger, summary Summary, hasData, active bool) {
	log.Debug().
		Int("step", summary.Steps).
		Bool("has_data", hasData).
		Bool("any_active", active).
		Msg("joined step")
}

// Run runs every worker concurrently. The first failure aborts the group and
// cancels the others. Summaries are indexed like workers.
func Run[T any](ctx context.Context, workers []*Worker[T]) ([]Summary, error) {
	for _, w := range workers {
		if w.group.Size() != len(workers) {
			return nil, fmt.Errorf("collective: group of %d ranks driven by %d workers", w.group.Size(), len(workers))
		}
	}

	summaries := make([]Summary, len(workers))
	errs := make([]error, len(workers))
	g, ctx := errgroup.WithContext(ctx)

	for i, w := range workers {
		g.Go(func() error {
			summaries[i], errs[i] = w.Run(ctx)
			return errs[i]
		})
	}

	if err := g.Wait(); err != nil {
		// peers released by the abort may return before the rank that failed
		for _, e := range errs {
			if e != nil && !errors.Is(e, ErrAborted) {
				return summaries, e
			}
		}
		return summaries, err
	}

	return summaries, nil
}
