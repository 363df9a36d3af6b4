package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

type shuffleIterator[T any] struct {
	src  Iterator[T]
	size int
	rng  *rand.Rand

	buf     []T
	srcDone bool
	err     error
}

// Shuffle returns elements in a random order drawn from a sliding buffer of
// size elements. The order is reproducible for a fixed seed. A source
// failure is reported once the buffered elements have been returned.
func Shuffle[T any](src Iterator[T], size int, seed uint64) (Iterator[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: shuffle buffer %d", ErrInvalidArgument, size)
	}

	return &shuffleIterator[T]{
		src:  src,
		size: size,
		rng:  rand.New(rand.NewPCG(seed, seed)),
		buf:  make([]T, 0, size),
	}, nil
}

func (s *shuffleIterator[T]) Next(ctx context.Context) (T, error) {
	for !s.srcDone && len(s.buf) < s.size {
		v, err := s.src.Next(ctx)
		if err != nil {
			s.srcDone = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			break
		}

		s.buf = append(s.buf, v)
	}

	var zero T
	if len(s.buf) == 0 {
		if s.err != nil {
			return zero, s.err
		}
		return zero, io.EOF
	}

	i := s.rng.IntN(len(s.buf))
	last := len(s.buf) - 1

	v := s.buf[i]
	s.buf[i] = s.buf[last]
	s.buf[last] = zero
	s.buf = s.buf[:last]

	return v, nil
}

func (s *shuffleIterator[T]) Close() error {
	return s.src.Close()
}
