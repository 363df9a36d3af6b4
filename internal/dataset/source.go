package dataset

import (
	"context"
	"io"
	"sync"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

type pipelineIterator struct {
	out    *pipeline.ChannelPipe
	cancel context.CancelFunc
	errc   chan error

	err       error
	finished  bool
	closeOnce sync.Once
}

// FromPipeline starts p and exposes its output as an iterator. Every message
// the routines produced is returned in order; afterwards Next returns the
// first routine error, or io.EOF when all routines succeeded.
func FromPipeline(ctx context.Context, p *pipeline.Pipeline) Iterator[pipeline.Msg] {
	ctx, cancel := context.WithCancel(ctx)

	it := &pipelineIterator{
		out:    pipeline.NewChanPipe(),
		cancel: cancel,
		errc:   make(chan error, 1),
	}

	go func() {
		it.errc <- p.Start(ctx, it.out)
	}()

	return it
}

// PipelineSource reopens a freshly built pipeline on every call, so file
// backed datasets can be repeated.
func PipelineSource(build func() *pipeline.Pipeline) Source[pipeline.Msg] {
	return func(ctx context.Context) (Iterator[pipeline.Msg], error) {
		return FromPipeline(ctx, build()), nil
	}
}

func (it *pipelineIterator) Next(ctx context.Context) (pipeline.Msg, error) {
	if it.err != nil {
		return pipeline.Msg{}, it.err
	}

	select {
	case <-ctx.Done():
		return pipeline.Msg{}, ctx.Err()
	case msg, ok := <-it.out.Out():
		if ok {
			return msg, nil
		}
	}

	it.finish()
	if it.err == nil {
		it.err = io.EOF
	}

	return pipeline.Msg{}, it.err
}

func (it *pipelineIterator) finish() {
	if it.finished {
		return
	}

	it.finished = true
	it.err = <-it.errc
}

func (it *pipelineIterator) Close() error {
	it.closeOnce.Do(func() {
		it.cancel()

		for range it.out.Out() {
		}

		wasFinished := it.finished
		it.finish()
		if !wasFinished || it.err == io.EOF {
			it.err = ErrClosed
		}
	})

	return nil
}
