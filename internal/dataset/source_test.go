package dataset_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/caiorcferreira/datajoin/internal/dataset"
	"github.com/caiorcferreira/datajoin/internal/pipeline"
	pipelinemocks "github.com/caiorcferreira/datajoin/internal/pipeline/mocks"
)

func emitting(ctrl *gomock.Controller, n int, failure error) *pipelinemocks.MockRoutine {
	source := pipelinemocks.NewMockRoutine(ctrl)
	source.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, pipe pipeline.Pipe) error {
			defer pipe.Close()

			for i := 0; i < n; i++ {
				msg := pipeline.Msg{ID: fmt.Sprint(i), Data: i}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case pipe.Out() <- msg:
				}
			}

			return failure
		},
	)

	return source
}

func TestFromPipeline(t *testing.T) {
	t.Run("streams every message then exhaustion", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		ctrl := gomock.NewController(t)
		it := dataset.FromPipeline(ctx, pipeline.New(emitting(ctrl, 5, nil)))
		defer it.Close()

		msgs, err := dataset.Collect(ctx, it)
		require.NoError(t, err)
		require.Len(t, msgs, 5)
		for i, msg := range msgs {
			assert.Equal(t, i, msg.Data)
		}

		_, err = it.Next(ctx)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("routine failure follows the produced messages", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		errParse := errors.New("parse failed")
		ctrl := gomock.NewController(t)

		joined := dataset.Join(dataset.FromPipeline(ctx, pipeline.New(emitting(ctrl, 3, errParse))))
		defer joined.Close()

		msgs, err := dataset.Collect[pipeline.Msg](ctx, joined)
		assert.ErrorIs(t, err, errParse)
		assert.Len(t, msgs, 3)
		assert.False(t, joined.Ended(), "a failed stream never reports a clean end")
	})

	t.Run("close before exhaustion stops the routines", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		ctrl := gomock.NewController(t)
		it := dataset.FromPipeline(ctx, pipeline.New(emitting(ctrl, 1000, nil)))

		_, err := it.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, it.Close())

		_, err = it.Next(ctx)
		assert.ErrorIs(t, err, dataset.ErrClosed)
	})

	t.Run("pipeline source can be repeated", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		ctrl := gomock.NewController(t)
		src := dataset.PipelineSource(func() *pipeline.Pipeline {
			return pipeline.New(emitting(ctrl, 2, nil))
		})

		msgs, err := dataset.Collect(ctx, dataset.Repeat(src, 2))
		require.NoError(t, err)
		assert.Len(t, msgs, 4)
	})
}
