package pipeline

// DefaultBuffer is the capacity of the channels created by NewChanPipe.
const DefaultBuffer = 1

type ChannelPipe struct {
	in  chan Msg
	out chan Msg

	done chan struct{}
}

func NewChanPipe() *ChannelPipe {
	return NewBufferedPipe(DefaultBuffer)
}

// NewBufferedPipe creates a pipe whose channels hold up to size messages.
func NewBufferedPipe(size int) *ChannelPipe {
	if size < 0 {
		size = 0
	}

	return &ChannelPipe{
		in:   make(chan Msg, size),
		out:  make(chan Msg, size),
		done: make(chan struct{}),
	}
}

func (c *ChannelPipe) Done() <-chan struct{} {
	return c.done
}

func (c *ChannelPipe) In() chan Msg {
	return c.in
}

func (c *ChannelPipe) Out() chan Msg {
	return c.out
}

// Chain makes p the consumer of everything written to c.Out().
func (c *ChannelPipe) Chain(p Pipe) {
	c.out = p.In()
}

// Close marks the pipe done and closes its output. Safe to call repeatedly.
func (c *ChannelPipe) Close() error {
	SafeClose(c.done)
	SafeClose(c.out)

	return nil
}

func SafeClose[T any](ch chan T) (justClosed bool) {
	defer func() {
		if recover() != nil {
			justClosed = false
		}
	}()
	close(ch)
	return true
}
