package filesystem_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
	"github.com/caiorcferreira/datajoin/internal/routines/filesystem"
)

// parse runs codec over content and returns every emitted message.
func parse(t *testing.T, codec filesystem.ReadCodec, content string) ([]pipeline.Msg, error) {
	t.Helper()
	return parseReader(context.Background(), codec, strings.NewReader(content))
}

func parseReader(ctx context.Context, codec filesystem.ReadCodec, reader io.Reader) ([]pipeline.Msg, error) {
	pipe := pipeline.NewChanPipe()

	var results []pipeline.Msg
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for msg := range pipe.Out() {
			results = append(results, msg)
		}
	}()

	err := codec.Parse(ctx, reader, pipe)
	pipe.Close()
	wg.Wait()

	return results, err
}

func data[T any](msgs []pipeline.Msg) []T {
	out := make([]T, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Data.(T))
	}
	return out
}
