package dataset

import (
	"context"
	"errors"
	"io"
	"sync"
)

type prefetched[T any] struct {
	v   T
	err error
}

type prefetchIterator[T any] struct {
	src     Iterator[T]
	results chan prefetched[T]
	cancel  context.CancelFunc
	stopped chan struct{}

	err       error
	closeOnce sync.Once
	closeErr  error
}

// Prefetch pulls from src on a background goroutine, keeping up to size
// elements ready. Elements and the terminating error arrive in source order.
// Close stops the goroutine before closing src.
//
// A joined iterator placed below Prefetch updates its register when the
// background goroutine pulls, not when the consumer does; join after
// Prefetch to track what the consumer has seen.
func Prefetch[T any](ctx context.Context, src Iterator[T], size int) Iterator[T] {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &prefetchIterator[T]{
		src:     src,
		results: make(chan prefetched[T], size),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	go p.run(ctx)

	return p
}

func (p *prefetchIterator[T]) run(ctx context.Context) {
	defer close(p.stopped)
	defer close(p.results)

	for {
		v, err := p.src.Next(ctx)

		select {
		case <-ctx.Done():
			return
		case p.results <- prefetched[T]{v: v, err: err}:
		}

		if err != nil {
			return
		}
	}
}

func (p *prefetchIterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if p.err != nil {
		return zero, p.err
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r, ok := <-p.results:
		if !ok {
			p.err = ErrClosed
			return zero, p.err
		}
		if r.err != nil {
			p.err = r.err
			return zero, r.err
		}

		return r.v, nil
	}
}

func (p *prefetchIterator[T]) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.stopped

		if p.err == nil || errors.Is(p.err, io.EOF) {
			p.err = ErrClosed
		}

		p.closeErr = p.src.Close()
	})

	return p.closeErr
}
