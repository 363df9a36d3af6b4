package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type batchIterator[T any] struct {
	src           Iterator[T]
	size          int
	dropRemainder bool
	done          bool
}

// Batch groups consecutive elements into slices of size. The last, shorter
// batch is kept unless dropRemainder is set. A source failure discards the
// partial batch and is returned immediately.
func Batch[T any](src Iterator[T], size int, dropRemainder bool) (Iterator[[]T], error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrInvalidArgument, size)
	}

	return &batchIterator[T]{src: src, size: size, dropRemainder: dropRemainder}, nil
}

func (b *batchIterator[T]) Next(ctx context.Context) ([]T, error) {
	if b.done {
		return nil, io.EOF
	}

	batch := make([]T, 0, b.size)
	for len(batch) < b.size {
		v, err := b.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			b.done = true
			break
		}
		if err != nil {
			return nil, err
		}

		batch = append(batch, v)
	}

	if len(batch) == 0 || (b.dropRemainder && len(batch) < b.size) {
		return nil, io.EOF
	}

	return batch, nil
}

func (b *batchIterator[T]) Close() error {
	return b.src.Close()
}

type rebatchIterator[T any] struct {
	src           Iterator[[]T]
	size          int
	minSize       int
	dropRemainder bool

	buf   []T
	ready [][]T
	done  bool
}

// Rebatch regroups batches from src into batches of size rows.
//
// A pending batch that already holds at least minSize rows is emitted as is
// rather than topped up past size with rows of the next input batch, which
// keeps input batches intact where possible. minSize 0 means size, i.e. every
// non-final batch has exactly size rows. With dropRemainder every emitted
// batch has exactly size rows: pending rows are never flushed early and a
// short final batch is dropped.
func Rebatch[T any](src Iterator[[]T], size, minSize int, dropRemainder bool) (Iterator[[]T], error) {
	if minSize == 0 {
		minSize = size
	}
	if size < 1 || minSize < 1 || minSize > size {
		return nil, fmt.Errorf("%w: rebatch size %d, min size %d", ErrInvalidArgument, size, minSize)
	}

	return &rebatchIterator[T]{
		src:           src,
		size:          size,
		minSize:       minSize,
		dropRemainder: dropRemainder,
	}, nil
}

func (r *rebatchIterator[T]) Next(ctx context.Context) ([]T, error) {
	for len(r.ready) == 0 {
		if r.done {
			if len(r.buf) == 0 || (r.dropRemainder && len(r.buf) < r.size) {
				r.buf = nil
				return nil, io.EOF
			}

			r.ready = append(r.ready, r.buf)
			r.buf = nil
			break
		}

		in, err := r.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.done = true
			continue
		}
		if err != nil {
			return nil, err
		}

		r.push(in)
	}

	out := r.ready[0]
	r.ready = r.ready[1:]

	return out, nil
}

func (r *rebatchIterator[T]) push(in []T) {
	if !r.dropRemainder && len(r.buf) > 0 && len(r.buf)+len(in) > r.size && len(r.buf) >= r.minSize {
		r.ready = append(r.ready, r.buf)
		r.buf = nil
	}

	r.buf = append(r.buf, in...)

	for len(r.buf) >= r.size {
		r.ready = append(r.ready, r.buf[:r.size:r.size])
		r.buf = r.buf[r.size:]
	}
}

func (r *rebatchIterator[T]) Close() error {
	return r.src.Close()
}
