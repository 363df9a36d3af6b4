package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

// JSONMode selects how a JSON document is split into messages.
type JSONMode int

const (
	// JSONAuto decodes one value; a top-level array is split into its items.
	JSONAuto JSONMode = iota
	// JSONArray requires a top-level array and emits each item.
	JSONArray
	// JSONLines decodes one value per non-blank line.
	JSONLines
)

type JSONCodec struct {
	Mode JSONMode
}

var _ ReadCodec = (*JSONCodec)(nil)

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Mode: JSONAuto}
}

func (c *JSONCodec) WithJSONLinesMode() *JSONCodec {
	c.Mode = JSONLines
	return c
}

func (c *JSONCodec) WithJSONArrayMode() *JSONCodec {
	c.Mode = JSONArray
	return c
}

func (c *JSONCodec) Parse(ctx context.Context, reader io.Reader, pipe pipeline.Pipe) error {
	switch c.Mode {
	case JSONLines:
		return c.parseLines(ctx, reader, pipe)
	case JSONArray:
		var items []any
		if err := json.NewDecoder(reader).Decode(&items); err != nil {
			return fmt.Errorf("decode json array: %w", err)
		}
		return emitAll(ctx, pipe, items)
	default:
		var value any
		if err := json.NewDecoder(reader).Decode(&value); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
		if items, ok := value.([]any); ok {
			return emitAll(ctx, pipe, items)
		}
		return emit(ctx, pipe, value)
	}
}

func (c *JSONCodec) parseLines(ctx context.Context, reader io.Reader, pipe pipeline.Pipe) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode json line %d: %w", line, err)
		}

		if err := emit(ctx, pipe, value); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan json line %d: %w", line+1, err)
	}

	return nil
}

func emitAll(ctx context.Context, pipe pipeline.Pipe, items []any) error {
	for _, item := range items {
		if err := emit(ctx, pipe, item); err != nil {
			return err
		}
	}
	return nil
}
