package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

// LineCodec emits every text line as a string message, empty lines included.
type LineCodec struct {
	// Skip drops the first Skip lines, typically a header.
	Skip int
}

var _ ReadCodec = (*LineCodec)(nil)

func NewLineCodec() *LineCodec {
	return &LineCodec{}
}

func (c *LineCodec) WithSkip(n int) *LineCodec {
	c.Skip = n
	return c
}

func (c *LineCodec) Parse(ctx context.Context, reader io.Reader, pipe pipeline.Pipe) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if line <= c.Skip {
			continue
		}
		if err := emit(ctx, pipe, scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan line %d: %w", line+1, err)
	}

	return nil
}
