package main

import (
	"github.com/spf13/cobra"

	"github.com/caiorcferreira/datajoin/internal/config"
)

// datasetFlags are shared by every command that builds an input chain.
type datasetFlags struct {
	format        string
	filter        string
	header        bool
	shuffleBuffer int
	seed          uint64
	epochs        int
	batchSize     int
	dropRemainder bool
	rebatchSize   int
	minBatchSize  int
	parallelism   int
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "line", "input format: line, csv, json or jsonl")
	cmd.Flags().StringVar(&f.filter, "filter", "", "keep elements matching this expression")
	cmd.Flags().BoolVar(&f.header, "header", false, "drop the first CSV row")
	cmd.Flags().IntVar(&f.shuffleBuffer, "shuffle-buffer", 0, "shuffle buffer size, 0 disables shuffling")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "shuffle seed")
	cmd.Flags().IntVar(&f.epochs, "epochs", 1, "number of passes over the file")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "batch size, 0 disables batching")
	cmd.Flags().BoolVar(&f.dropRemainder, "drop-remainder", false, "drop a short final batch")
	cmd.Flags().IntVar(&f.rebatchSize, "rebatch-size", 0, "regroup batches to this many rows, 0 disables rebatching")
	cmd.Flags().IntVar(&f.minBatchSize, "min-batch-size", 0, "smallest batch flushed before it would overflow, 0 means rebatch-size")
	cmd.Flags().IntVar(&f.parallelism, "parallelism", 1, "parallel CSV decoders")
}

// apply copies every flag the user set over cfg and revalidates it.
func (f *datasetFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("format") {
		cfg.Input.Format = f.format
	}
	if changed("filter") {
		cfg.Input.Filter = f.filter
	}
	if changed("header") {
		cfg.Input.CSVHeader = f.header
	}
	if changed("shuffle-buffer") {
		cfg.Dataset.ShuffleBuffer = f.shuffleBuffer
	}
	if changed("seed") {
		cfg.Dataset.Seed = f.seed
	}
	if changed("epochs") {
		cfg.Dataset.Epochs = f.epochs
	}
	if changed("batch-size") {
		cfg.Dataset.BatchSize = f.batchSize
	}
	if changed("drop-remainder") {
		cfg.Dataset.DropRemainder = f.dropRemainder
	}
	if changed("rebatch-size") {
		cfg.Dataset.RebatchSize = f.rebatchSize
	}
	if changed("min-batch-size") {
		cfg.Dataset.MinBatchSize = f.minBatchSize
	}
	if changed("parallelism") {
		cfg.Dataset.Parallelism = f.parallelism
	}

	return cfg.Validate()
}
