package routines

import (
	"context"
	"fmt"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

type TransformRoutine[T, V any] struct {
	transform func(T) (V, error)
}

var _ pipeline.Routine = (*TransformRoutine[int, int])(nil)

// Transform applies f to the payload of every message, keeping its ID.
func Transform[T, V any](f func(T) V) *TransformRoutine[T, V] {
	return &TransformRoutine[T, V]{
		transform: func(v T) (V, error) { return f(v), nil },
	}
}

// TryTransform is Transform for fallible functions; the first error stops
// the routine.
func TryTransform[T, V any](f func(T) (V, error)) *TransformRoutine[T, V] {
	return &TransformRoutine[T, V]{transform: f}
}

func (t *TransformRoutine[T, V]) Start(ctx context.Context, pipe pipeline.Pipe) error {
	defer pipe.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, open := <-pipe.In():
			if !open {
				return nil
			}

			val, ok := msg.Data.(T)
			if !ok {
				return fmt.Errorf("transform: message %s carries %T", msg.ID, msg.Data)
			}

			out, err := t.transform(val)
			if err != nil {
				return fmt.Errorf("transform message %s: %w", msg.ID, err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case pipe.Out() <- pipeline.Msg{ID: msg.ID, Data: out}:
			}
		}
	}
}
