package datajoin

import (
	"context"
	"fmt"
	"strings"

	"github.com/caiorcferreira/datajoin/internal/config"
	"github.com/caiorcferreira/datajoin/internal/dataset"
	"github.com/caiorcferreira/datajoin/internal/logging"
	"github.com/caiorcferreira/datajoin/internal/pipeline"
	"github.com/caiorcferreira/datajoin/internal/predicate"
	"github.com/caiorcferreira/datajoin/internal/routines"
	"github.com/caiorcferreira/datajoin/internal/routines/filesystem"
)

// Reader builds the push side for one pass over path. CSV input read with
// parallelism above one is split into lines and decoded by parallel
// workers, which does not preserve row order or skip comment lines.
func Reader(path string, in config.InputConfig, ds config.DatasetConfig) (*pipeline.Pipeline, error) {
	p, err := reader(path, in, ds.Parallelism)
	if err != nil {
		return nil, err
	}
	return p.WithBuffer(ds.PipeBuffer), nil
}

func reader(path string, in config.InputConfig, parallelism int) (*pipeline.Pipeline, error) {
	file := filesystem.File(path).Read()

	switch in.Format {
	case "line":
		return pipeline.New(file.WithLineCodec()), nil
	case "json":
		return pipeline.New(file.WithJSONCodec()), nil
	case "jsonl":
		return pipeline.New(file.WithCodec(filesystem.NewJSONCodec().WithJSONLinesMode())), nil
	case "csv":
		if parallelism <= 1 {
			codec := filesystem.NewCSVCodec().
				WithSeparator(in.Separator()).
				WithComment(in.Comment())
			if in.CSVHeader {
				codec.WithHeader()
			}
			return pipeline.New(file.WithCodec(codec)), nil
		}

		lines := filesystem.NewLineCodec()
		if in.CSVHeader {
			lines.WithSkip(1)
		}
		decode := routines.TryTransform(filesystem.ParseCSVLine(in.Separator()))
		return pipeline.New(file.WithCodec(lines)).
			Chain(routines.Parallel(decode, parallelism)), nil
	default:
		return nil, fmt.Errorf("unknown input format %q", in.Format)
	}
}

// Open returns the re-openable dataset for one shard of path: read, filter,
// shard, then shuffle. Every open reshuffles with the next seed so epochs
// differ while staying reproducible.
func Open(path string, cfg *config.Config, shards, index int) (Source[pipeline.Msg], error) {
	if _, err := Reader(path, cfg.Input, cfg.Dataset); err != nil {
		return nil, err
	}
	if shards < 1 || index < 0 || index >= shards {
		return nil, fmt.Errorf("%w: shard %d of %d", dataset.ErrInvalidArgument, index, shards)
	}

	var pred *predicate.Predicate
	if strings.TrimSpace(cfg.Input.Filter) != "" {
		p, err := predicate.Compile(cfg.Input.Filter)
		if err != nil {
			return nil, err
		}
		pred = p
	}

	epoch := uint64(0)
	return func(ctx context.Context) (Iterator[pipeline.Msg], error) {
		p, err := Reader(path, cfg.Input, cfg.Dataset)
		if err != nil {
			return nil, err
		}

		var it Iterator[pipeline.Msg] = dataset.FromPipeline(ctx, p)
		if pred != nil {
			it = dataset.Filter(it, pred.Match)
		}

		if shards > 1 {
			sharded, err := dataset.Shard(it, shards, index)
			if err != nil {
				it.Close()
				return nil, err
			}
			it = sharded
		}

		if cfg.Dataset.ShuffleBuffer > 0 {
			shuffled, err := dataset.Shuffle(it, cfg.Dataset.ShuffleBuffer, cfg.Dataset.Seed+epoch)
			if err != nil {
				it.Close()
				return nil, err
			}
			it = shuffled
		}
		epoch++

		log := logging.With("input")
		log.Debug().
			Str("path", path).
			Int("shard", index).
			Uint64("epoch", epoch).
			Msg("opened dataset")

		return it, nil
	}, nil
}

// Elements repeats the shard for the configured epochs and prefetches.
// Batching and Join are left to the caller, which knows the element type.
func Elements(ctx context.Context, path string, cfg *config.Config, shards, index int) (Iterator[pipeline.Msg], error) {
	src, err := Open(path, cfg, shards, index)
	if err != nil {
		return nil, err
	}

	it := dataset.Repeat(src, cfg.Dataset.Epochs)
	if cfg.Dataset.Prefetch > 0 {
		it = dataset.Prefetch(ctx, it, cfg.Dataset.Prefetch)
	}
	return it, nil
}

// Batches groups elements into batch_size rows, then regroups them to
// rebatch_size when set. it is closed when a stage cannot be built.
func Batches(it Iterator[pipeline.Msg], ds config.DatasetConfig) (Iterator[[]pipeline.Msg], error) {
	batched, err := dataset.Batch(it, ds.BatchSize, ds.DropRemainder)
	if err != nil {
		it.Close()
		return nil, err
	}
	if ds.RebatchSize == 0 {
		return batched, nil
	}

	rebatched, err := dataset.Rebatch(batched, ds.RebatchSize, ds.MinBatchSize, ds.DropRemainder)
	if err != nil {
		batched.Close()
		return nil, err
	}
	return rebatched, nil
}
