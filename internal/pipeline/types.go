package pipeline

import (
	"context"
	"io"
)

// Msg is the envelope every reader emits. Data is opaque to the plumbing.
type Msg struct {
	ID   string
	Data any
}

type Pipe interface {
	In() chan Msg
	Out() chan Msg
	Done() <-chan struct{}
	Chain(p Pipe)
	io.Closer
}

// Routine consumes pipe.In() and produces into pipe.Out(). A routine owns
// the output side of its pipe and closes it when it returns.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mocks/mock_routine.go -package=mocks Routine
type Routine interface {
	Start(ctx context.Context, pipe Pipe) error
}
