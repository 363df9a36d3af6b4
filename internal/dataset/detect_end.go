package dataset

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
)

// Marked pairs an element with its end marker. Last is true only for the
// final element of the source.
type Marked[T any] struct {
	Last bool
	Elem T
}

// markEndIterator decides whether an element is the last one by pulling its
// successor first. At most one element is buffered at any time.
type markEndIterator[T any] struct {
	src Iterator[T]

	started    bool
	pending    T
	hasPending bool

	// err is sticky once set: io.EOF after the last element, or the source
	// failure that interrupted the lookahead.
	err error
}

// MarkEnd pairs every element of src with its end marker. An empty source
// yields no pairs. A failure met while looking ahead is held back until the
// element already buffered has been delivered, so the consumer observes
// exactly the elements produced before the failure.
func MarkEnd[T any](src Iterator[T]) Iterator[Marked[T]] {
	return &markEndIterator[T]{src: src}
}

func (m *markEndIterator[T]) Next(ctx context.Context) (Marked[T], error) {
	if !m.started {
		m.started = true
		m.lookahead(ctx)
	}

	if !m.hasPending {
		return Marked[T]{}, m.err
	}

	current := m.pending
	m.lookahead(ctx)

	return Marked[T]{
		Last: !m.hasPending && errors.Is(m.err, io.EOF),
		Elem: current,
	}, nil
}

func (m *markEndIterator[T]) lookahead(ctx context.Context) {
	var zero T

	v, err := m.src.Next(ctx)
	if err != nil {
		m.pending, m.hasPending, m.err = zero, false, err
		return
	}

	m.pending, m.hasPending = v, true
}

func (m *markEndIterator[T]) Close() error {
	return m.src.Close()
}

// EndState is the end-state register of one joined pipeline. It holds the
// marker of the most recently released element. Reads are atomic and may
// happen from any goroutine; only the owning iterator writes it.
//
// A nil *EndState reads as false.
type EndState struct {
	ended atomic.Bool
}

// Ended reports whether the last released element was the final one.
func (s *EndState) Ended() bool {
	if s == nil {
		return false
	}

	return s.ended.Load()
}

func (s *EndState) set(v bool) {
	s.ended.Store(v)
}

// DetectEndIterator passes elements through unchanged and records each
// element's end marker in its EndState before returning the element.
type DetectEndIterator[T any] struct {
	marked Iterator[Marked[T]]
	state  *EndState
}

// DetectEnd wraps src with end detection and a fresh EndState.
func DetectEnd[T any](src Iterator[T]) *DetectEndIterator[T] {
	return &DetectEndIterator[T]{
		marked: MarkEnd(src),
		state:  &EndState{},
	}
}

func (d *DetectEndIterator[T]) Next(ctx context.Context) (T, error) {
	m, err := d.marked.Next(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	// the register must hold this element's marker before the caller sees it
	d.state.set(m.Last)

	return m.Elem, nil
}

func (d *DetectEndIterator[T]) Close() error {
	return d.marked.Close()
}

// State returns the register owned by this iterator.
func (d *DetectEndIterator[T]) State() *EndState {
	return d.state
}

// Ended reads the register.
func (d *DetectEndIterator[T]) Ended() bool {
	return d.state.Ended()
}
