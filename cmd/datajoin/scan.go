package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/caiorcferreira/datajoin"
	"github.com/caiorcferreira/datajoin/internal/dataset"
	"github.com/caiorcferreira/datajoin/internal/logging"
	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

func scanCmd(opts *options) *cobra.Command {
	flags := &datasetFlags{}

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Iterate a joined dataset and report the end state of every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			it, err := datajoin.Elements(ctx, args[0], cfg, 1, 0)
			if err != nil {
				return err
			}

			if cfg.Dataset.BatchSize > 0 {
				batches, err := datajoin.Batches(it, cfg.Dataset)
				if err != nil {
					return err
				}
				return scan(ctx, cmd.OutOrStdout(), batches, func(b []pipeline.Msg) int { return len(b) })
			}

			return scan(ctx, cmd.OutOrStdout(), it, func(pipeline.Msg) int { return 1 })
		},
	}

	flags.register(cmd)
	return cmd
}

// scan joins it and drains it one step at a time.
func scan[T any](ctx context.Context, w io.Writer, it dataset.Iterator[T], size func(T) int) error {
	log := logging.With("scan")

	joined := datajoin.Join(it)
	defer joined.Close()

	steps, elements := 0, 0
	for {
		v, err := joined.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", steps, err)
		}

		elements += size(v)
		log.Debug().
			Int("step", steps).
			Int("size", size(v)).
			Bool("ended", joined.Ended()).
			Msg("step")

		if joined.Ended() {
			log.Info().Int("step", steps).Msg("last element consumed")
		}
		steps++
	}

	_, err := fmt.Fprintf(w, "steps=%d elements=%d ended=%t\n", steps, elements, joined.Ended())
	return err
}
