package dataset

import (
	"context"
	"errors"
	"io"
)

type repeatIterator[T any] struct {
	src    Source[T]
	epochs int

	epoch   int
	cur     Iterator[T]
	yielded bool
}

// Repeat streams src epochs times, opening it afresh for each epoch.
// epochs <= 0 repeats until an epoch comes back empty.
func Repeat[T any](src Source[T], epochs int) Iterator[T] {
	return &repeatIterator[T]{src: src, epochs: epochs}
}

func (r *repeatIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for {
		if r.cur == nil {
			if r.epochs > 0 && r.epoch >= r.epochs {
				return zero, io.EOF
			}
			if r.epochs <= 0 && r.epoch > 0 && !r.yielded {
				return zero, io.EOF
			}

			it, err := r.src(ctx)
			if err != nil {
				return zero, err
			}

			r.cur = it
			r.epoch++
			r.yielded = false
		}

		v, err := r.cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			if cerr := r.cur.Close(); cerr != nil {
				return zero, cerr
			}
			r.cur = nil
			continue
		}
		if err != nil {
			return zero, err
		}

		r.yielded = true

		return v, nil
	}
}

func (r *repeatIterator[T]) Close() error {
	if r.cur == nil {
		return nil
	}

	err := r.cur.Close()
	r.cur = nil

	return err
}
