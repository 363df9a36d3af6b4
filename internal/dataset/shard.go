package dataset

import (
	"context"
	"fmt"
)

type shardIterator[T any] struct {
	src   Iterator[T]
	count int
	index int
	pos   int
}

// Shard keeps the elements whose position modulo count equals index, so
// count workers sharing one source see disjoint, possibly uneven, slices.
func Shard[T any](src Iterator[T], count, index int) (Iterator[T], error) {
	if count < 1 || index < 0 || index >= count {
		return nil, fmt.Errorf("%w: shard %d of %d", ErrInvalidArgument, index, count)
	}

	return &shardIterator[T]{src: src, count: count, index: index}, nil
}

func (s *shardIterator[T]) Next(ctx context.Context) (T, error) {
	for {
		v, err := s.src.Next(ctx)
		if err != nil {
			return v, err
		}

		pos := s.pos
		s.pos++

		if pos%s.count == s.index {
			return v, nil
		}
	}
}

func (s *shardIterator[T]) Close() error {
	return s.src.Close()
}
