package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/caiorcferreira/datajoin/internal/logging"
	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

func File(path string) FileRoutineBuilder {
	return FileRoutineBuilder{path: path}
}

type FileRoutineBuilder struct {
	path string
}

// Read returns a source routine streaming the file through a LineCodec
// unless another codec is set.
func (f FileRoutineBuilder) Read() *ReadFileRoutine {
	return &ReadFileRoutine{path: f.path, readCodec: NewLineCodec()}
}

// ReadFileRoutine is a pipeline source: it ignores pipe.In() and closes the
// pipe once the file is consumed or the codec fails.
type ReadFileRoutine struct {
	path      string
	readCodec ReadCodec
}

var _ pipeline.Routine = (*ReadFileRoutine)(nil)

func (r *ReadFileRoutine) WithCodec(codec ReadCodec) *ReadFileRoutine {
	r.readCodec = codec
	return r
}

func (r *ReadFileRoutine) WithLineCodec() *ReadFileRoutine {
	r.readCodec = NewLineCodec()
	return r
}

func (r *ReadFileRoutine) WithJSONCodec() *ReadFileRoutine {
	r.readCodec = NewJSONCodec()
	return r
}

func (r *ReadFileRoutine) Start(ctx context.Context, pipe pipeline.Pipe) error {
	defer pipe.Close()

	log := logging.With("filesystem")
	log.Debug().Str("path", r.path).Msg("reading file")

	file, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open file for read: %w", err)
	}
	defer file.Close()

	if err := r.readCodec.Parse(ctx, file, pipe); err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.path, err)
	}

	log.Debug().Str("path", r.path).Msg("finished reading file")
	return nil
}
