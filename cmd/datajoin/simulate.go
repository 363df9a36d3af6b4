package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/caiorcferreira/datajoin"
	"github.com/caiorcferreira/datajoin/internal/collective"
	"github.com/caiorcferreira/datajoin/internal/config"
	"github.com/caiorcferreira/datajoin/internal/dataset"
	"github.com/caiorcferreira/datajoin/internal/logging"
	"github.com/caiorcferreira/datajoin/internal/metrics"
	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

func simulateCmd(opts *options) *cobra.Command {
	flags := &datasetFlags{}
	var (
		workers     int
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "simulate <file>",
		Short: "Run several joined workers over shards of one file in lockstep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("workers") {
				cfg.Simulate.Workers = workers
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Simulate.MetricsFile = metricsFile
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			recorder := metrics.New()

			summaries, err := simulate(ctx, args[0], cfg, recorder)
			if err != nil {
				return err
			}

			if err := report(cmd.OutOrStdout(), summaries); err != nil {
				return err
			}

			if cfg.Simulate.MetricsFile != "" {
				return recorder.WriteTextfile(cfg.Simulate.MetricsFile)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", 2, "number of ranks")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	return cmd
}

func simulate(ctx context.Context, path string, cfg *config.Config, recorder *metrics.Recorder) ([]collective.Summary, error) {
	n := cfg.Simulate.Workers
	group, err := collective.NewGroup(n)
	if err != nil {
		return nil, err
	}

	log := logging.With("simulate")
	log.Info().
		Str("path", path).
		Int("workers", n).
		Int("batch_size", cfg.Dataset.BatchSize).
		Int("rebatch_size", cfg.Dataset.RebatchSize).
		Msg("starting simulation")

	shards := make([]dataset.Iterator[pipeline.Msg], 0, n)
	for rank := 0; rank < n; rank++ {
		it, err := datajoin.Elements(ctx, path, cfg, n, rank)
		if err != nil {
			closeAll(shards)
			return nil, err
		}
		shards = append(shards, it)
	}

	if cfg.Dataset.BatchSize == 0 {
		return run(ctx, group, recorder, shards)
	}

	batched := make([]dataset.Iterator[[]pipeline.Msg], 0, n)
	for rank, it := range shards {
		b, err := datajoin.Batches(it, cfg.Dataset)
		if err != nil {
			closeAll(batched)
			closeAll(shards[rank+1:])
			return nil, err
		}
		batched = append(batched, b)
	}
	return run(ctx, group, recorder, batched)
}

// closeAll releases iterators opened before a failure.
func closeAll[T any](its []dataset.Iterator[T]) {
	for _, it := range its {
		it.Close()
	}
}

func run[T any](ctx context.Context, group *collective.Group, recorder *metrics.Recorder, shards []dataset.Iterator[T]) ([]collective.Summary, error) {
	workers := make([]*collective.Worker[T], len(shards))
	for rank, it := range shards {
		workers[rank] = collective.NewWorker(group, rank, it).WithRecorder(recorder)
	}

	return collective.Run(ctx, workers)
}

func report(w io.Writer, summaries []collective.Summary) error {
	for _, s := range summaries {
		_, err := fmt.Fprintf(w, "rank=%d elements=%d idle_steps=%d steps=%d\n",
			s.Rank, s.Elements, s.IdleSteps, s.Steps)
		if err != nil {
			return err
		}
	}
	return nil
}
