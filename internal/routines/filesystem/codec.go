package filesystem

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

// maxLineSize bounds a single line for the line-oriented codecs.
const maxLineSize = 4 * 1024 * 1024

// ReadCodec decodes a reader into messages written to pipe.Out().
// Codecs never close the pipe; the routine that owns the file does.
type ReadCodec interface {
	Parse(ctx context.Context, reader io.Reader, pipe pipeline.Pipe) error
}

// emit sends data as a new message, giving up when ctx ends.
func emit(ctx context.Context, pipe pipeline.Pipe, data any) error {
	msg := pipeline.Msg{
		ID:   uuid.NewString(),
		Data: data,
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case pipe.Out() <- msg:
		return nil
	}
}
