package dataset

// Joined is implemented by iterators that carry an end-state register.
type Joined interface {
	State() *EndState
}

// Join attaches end detection to it. The result yields the same elements;
// its State reports whether the element most recently returned was the last
// one. Workers reading uneven shards consult it between steps to decide
// whether to keep taking part in collective operations.
//
// Joining an already joined iterator is allowed: elements are unchanged, the
// lookahead buffers stack, and the outer register is the one that tracks
// what the consumer has seen.
func Join[T any](it Iterator[T]) *DetectEndIterator[T] {
	return DetectEnd(it)
}

// JoinStage is Join as a pipeline stage. Every application creates its own
// register, so a single stage value can be reused across pipelines.
func JoinStage[T any]() Stage[T] {
	return func(it Iterator[T]) Iterator[T] {
		return Join(it)
	}
}

// StateOf returns the register of a joined iterator, or nil.
func StateOf[T any](it Iterator[T]) *EndState {
	if j, ok := it.(Joined); ok {
		return j.State()
	}

	return nil
}

// Pipeline builds an iterator chain and keeps track of the register of the
// outermost Join.
type Pipeline[T any] struct {
	it    Iterator[T]
	state *EndState
}

// From starts a pipeline on it.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{it: it}
}

// Apply wraps the current chain with stages. Stages applied after Join see
// elements before the consumer does, so the register then runs ahead of the
// consumer by whatever those stages buffer.
func (p *Pipeline[T]) Apply(stages ...Stage[T]) *Pipeline[T] {
	p.it = Apply(p.it, stages...)

	return p
}

// Join attaches end detection to the current chain.
func (p *Pipeline[T]) Join() *Pipeline[T] {
	joined := Join(p.it)
	p.it = joined
	p.state = joined.State()

	return p
}

// EndState returns the register of the most recent Join. It is nil, and
// reads false, until Join is called.
func (p *Pipeline[T]) EndState() *EndState {
	return p.state
}

func (p *Pipeline[T]) Iterator() Iterator[T] {
	return p.it
}
