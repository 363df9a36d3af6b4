package routines_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
	"github.com/caiorcferreira/datajoin/internal/routines"
)

func TestTransformRoutine_Start(t *testing.T) {
	t.Run("transforms integers to doubles in order", func(t *testing.T) {
		doubleTransform := routines.Transform(func(x int) int {
			return x * 2
		})

		testData := generateTestMsgs(1, 5)
		results, err := run(context.Background(), doubleTransform, testData)
		require.NoError(t, err)

		require.Len(t, results, len(testData))
		for i, msg := range results {
			assert.Equal(t, testData[i].ID, msg.ID)
			assert.Equal(t, testData[i].Data.(int)*2, msg.Data)
		}
	})

	t.Run("changes the payload type", func(t *testing.T) {
		stringTransform := routines.Transform(func(x int) string {
			return fmt.Sprintf("number_%d", x)
		})

		results, err := run(context.Background(), stringTransform, generateTestMsgs(1, 3))
		require.NoError(t, err)

		var got []string
		for _, msg := range results {
			got = append(got, msg.Data.(string))
		}
		assert.Equal(t, []string{"number_1", "number_2", "number_3"}, got)
	})

	t.Run("rejects unexpected payload types", func(t *testing.T) {
		transform := routines.Transform(func(x string) string { return x })

		results, err := run(context.Background(), transform, generateTestMsgs(1, 3))
		require.Error(t, err)

		assert.Contains(t, err.Error(), "carries int")
		assert.Empty(t, results)
	})

	t.Run("stops at the first failing message", func(t *testing.T) {
		failure := errors.New("odd value")
		transform := routines.TryTransform(func(x int) (int, error) {
			if x == 3 {
				return 0, failure
			}
			return x, nil
		})

		results, err := run(context.Background(), transform, generateTestMsgs(1, 5))
		require.ErrorIs(t, err, failure)

		assert.Len(t, results, 2)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		pipe := pipeline.NewChanPipe()

		errc := make(chan error, 1)
		go func() {
			errc <- routines.Transform(func(x int) int { return x }).Start(ctx, pipe)
		}()

		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("transform did not stop")
		}
	})
}
