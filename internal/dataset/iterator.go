// Package dataset provides pull-based, single-pass element streams and the
// stages used to compose them into an input pipeline.
//
// Every iterator signals normal exhaustion by returning io.EOF from Next.
// Any other error is a read failure of the underlying source and is passed
// through every stage unmodified.
package dataset

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrInvalidArgument is returned by stage constructors given bad parameters.
	ErrInvalidArgument = errors.New("dataset: invalid argument")

	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("dataset: iterator closed")
)

// Iterator produces the elements of a finite stream one pull at a time.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mocks/mock_iterator.go -package=mocks Iterator
type Iterator[T any] interface {
	// Next returns the next element, io.EOF once the stream is exhausted, or
	// the error that prevented the element from being produced.
	Next(ctx context.Context) (T, error)
	io.Closer
}

// Source opens a fresh iterator over the same data. Stages that need to read
// their input more than once take a Source instead of an Iterator.
type Source[T any] func(ctx context.Context) (Iterator[T], error)

// Stage is one step of a declarative pipeline.
type Stage[T any] func(Iterator[T]) Iterator[T]

// Apply chains stages in order, each wrapping the previous one.
func Apply[T any](it Iterator[T], stages ...Stage[T]) Iterator[T] {
	for _, stage := range stages {
		it = stage(it)
	}

	return it
}

type sliceIterator[T any] struct {
	items []T
	pos   int
}

// FromSlice streams the given items in order.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

func (s *sliceIterator[T]) Next(_ context.Context) (T, error) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, io.EOF
	}

	v := s.items[s.pos]
	s.pos++

	return v, nil
}

func (s *sliceIterator[T]) Close() error {
	return nil
}

// SliceSource returns a Source that streams items on every open.
func SliceSource[T any](items []T) Source[T] {
	return func(context.Context) (Iterator[T], error) {
		return FromSlice(items), nil
	}
}

// Collect drains it. On failure the elements read so far are returned along
// with the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var out []T

	for {
		v, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		out = append(out, v)
	}
}
