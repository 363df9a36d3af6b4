package dataset

import "context"

type mapIterator[T, V any] struct {
	src Iterator[T]
	fn  func(T) (V, error)
}

// Map applies fn to every element. An error from fn is returned by the pull
// that produced the element.
func Map[T, V any](src Iterator[T], fn func(T) (V, error)) Iterator[V] {
	return &mapIterator[T, V]{src: src, fn: fn}
}

func (m *mapIterator[T, V]) Next(ctx context.Context) (V, error) {
	v, err := m.src.Next(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	return m.fn(v)
}

func (m *mapIterator[T, V]) Close() error {
	return m.src.Close()
}

type filterIterator[T any] struct {
	src  Iterator[T]
	keep func(T) (bool, error)
}

// Filter drops the elements for which keep returns false.
func Filter[T any](src Iterator[T], keep func(T) (bool, error)) Iterator[T] {
	return &filterIterator[T]{src: src, keep: keep}
}

func (f *filterIterator[T]) Next(ctx context.Context) (T, error) {
	for {
		v, err := f.src.Next(ctx)
		if err != nil {
			return v, err
		}

		ok, err := f.keep(v)
		if err != nil {
			var zero T
			return zero, err
		}
		if ok {
			return v, nil
		}
	}
}

func (f *filterIterator[T]) Close() error {
	return f.src.Close()
}
