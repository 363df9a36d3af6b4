package collective_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorcferreira/datajoin/internal/collective"
)

// reduce runs one round with the given contributions and returns each
// rank's result.
func reduce(t *testing.T, g *collective.Group, values ...bool) []bool {
	t.Helper()

	results := make([]bool, len(values))
	errs := make([]error, len(values))

	var wg sync.WaitGroup
	for rank, v := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[rank], errs[rank] = g.AllReduceAny(context.Background(), rank, v)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	return results
}

func TestNewGroup(t *testing.T) {
	_, err := collective.NewGroup(0)
	assert.Error(t, err)

	g, err := collective.NewGroup(3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Size())
}

func TestGroup_AllReduceAny(t *testing.T) {
	g, err := collective.NewGroup(3)
	require.NoError(t, err)

	t.Run("true when any rank contributes true", func(t *testing.T) {
		assert.Equal(t, []bool{true, true, true}, reduce(t, g, false, true, false))
	})

	t.Run("false when every rank is done", func(t *testing.T) {
		assert.Equal(t, []bool{false, false, false}, reduce(t, g, false, false, false))
	})

	t.Run("rounds are independent", func(t *testing.T) {
		assert.Equal(t, []bool{true, true, true}, reduce(t, g, true, true, true))
		assert.Equal(t, []bool{false, false, false}, reduce(t, g, false, false, false))
	})
}

func TestGroup_AllReduceAny_SingleRank(t *testing.T) {
	g, err := collective.NewGroup(1)
	require.NoError(t, err)

	active, err := g.AllReduceAny(context.Background(), 0, true)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestGroup_AllReduceAny_InvalidRank(t *testing.T) {
	g, err := collective.NewGroup(2)
	require.NoError(t, err)

	_, err = g.AllReduceAny(context.Background(), 2, true)
	assert.ErrorIs(t, err, collective.ErrInvalidRank)

	_, err = g.AllReduceAny(context.Background(), -1, true)
	assert.ErrorIs(t, err, collective.ErrInvalidRank)
}

func TestGroup_AllReduceAny_DuplicateRank(t *testing.T) {
	g, err := collective.NewGroup(2)
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := g.AllReduceAny(context.Background(), 0, true)
		first <- err
	}()

	time.Sleep(50 * time.Millisecond)

	_, err = g.AllReduceAny(context.Background(), 0, true)
	assert.ErrorIs(t, err, collective.ErrInvalidRank)

	active, err := g.AllReduceAny(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, active)
	require.NoError(t, <-first)
}

func TestGroup_AllReduceAny_Cancellation(t *testing.T) {
	g, err := collective.NewGroup(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	waiting := make(chan error, 1)
	go func() {
		_, err := g.AllReduceAny(ctx, 0, true)
		waiting <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-waiting:
		assert.ErrorIs(t, err, collective.ErrAborted)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled rank still waiting")
	}

	_, err = g.AllReduceAny(context.Background(), 1, true)
	assert.ErrorIs(t, err, collective.ErrAborted)
}

func TestGroup_Abort_ReleasesWaiters(t *testing.T) {
	g, err := collective.NewGroup(3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[rank] = g.AllReduceAny(context.Background(), rank, true)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	g.Abort()
	g.Abort()
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, collective.ErrAborted)
	}
}
