// Package collective coordinates workers consuming uneven shards.
//
// Every step each rank contributes "I still have data" to an all-reduce OR.
// A rank whose shard ran out keeps joining with idle steps until the first
// round where nobody has data left, so no rank blocks in a collective that
// its peers already left.
package collective

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAborted is returned to every rank once a participant gave up.
	ErrAborted = errors.New("collective: group aborted")

	ErrInvalidRank = errors.New("collective: invalid rank")
)

type round struct {
	seen    []bool
	arrived int
	result  bool
	aborted bool
	done    chan struct{}
}

func newRound(size int) *round {
	return &round{
		seen: make([]bool, size),
		done: make(chan struct{}),
	}
}

// Group is a reusable barrier over a fixed number of ranks.
type Group struct {
	size int

	mu      sync.Mutex
	current *round
	aborted bool
}

func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("collective: group size must be positive, got %d", size)
	}

	return &Group{size: size, current: newRound(size)}, nil
}

func (g *Group) Size() int {
	return g.size
}

// AllReduceAny blocks until every rank contributed to the current round and
// returns the OR of all contributions. A rank may contribute once per round.
//
// If ctx ends first the group is aborted: the caller gets ctx's error wrapped
// in ErrAborted, every other rank gets ErrAborted.
func (g *Group) AllReduceAny(ctx context.Context, rank int, v bool) (bool, error) {
	if rank < 0 || rank >= g.size {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRank, rank, g.size)
	}

	g.mu.Lock()
	if g.aborted {
		g.mu.Unlock()
		return false, ErrAborted
	}

	r := g.current
	if r.seen[rank] {
		g.mu.Unlock()
		return false, fmt.Errorf("%w: rank %d contributed twice to one round", ErrInvalidRank, rank)
	}

	r.seen[rank] = true
	r.arrived++
	r.result = r.result || v

	if r.arrived == g.size {
		close(r.done)
		g.current = newRound(g.size)
	}
	g.mu.Unlock()

	select {
	case <-r.done:
		if r.aborted {
			return false, ErrAborted
		}
		return r.result, nil
	case <-ctx.Done():
		g.Abort()
		return false, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
}

// Abort poisons the group. Ranks waiting in the current round are released
// with ErrAborted and later calls fail immediately.
func (g *Group) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.aborted {
		return
	}
	g.aborted = true

	r := g.current
	if r.arrived < g.size {
		r.aborted = true
		close(r.done)
	}
}
