package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/routing"
)

func samplePath() routing.Path {
	n0 := graph.NewNode(graph.NodeRegular, 0)
	s0 := graph.NewNode(graph.NodeSuper, 0)
	n1 := graph.NewNode(graph.NodeRegular, 1)
	up := graph.NewEdge(s0, n0)
	down := graph.NewEdge(s0, n1)
	return routing.Path{
		{ID: n0.ID, Node: n0},
		{ID: up.ID, Edge: up},
		{ID: s0.ID, Node: s0},
		{ID: down.ID, Edge: down},
		{ID: n1.ID, Node: n1},
	}
}

func TestPlayer_PlaysInOrder(t *testing.T) {
	t.Parallel()

	p := NewPlayer(0, nil)
	var mu sync.Mutex
	var seen []string

	res := <-p.Play(t.Context(), samplePath(), func(_ context.Context, i int, e routing.Element) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.ID)
		return nil
	})

	require.NoError(t, res.Err)
	assert.Equal(t, 5, res.Played)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, []string{"n0", "edges0n0", "s0", "edges0n1", "n1"}, seen)
}

func TestPlayer_PacesSteps(t *testing.T) {
	t.Parallel()

	p := NewPlayer(20*time.Millisecond, nil)
	start := time.Now()

	res := <-p.Play(t.Context(), samplePath(), func(context.Context, int, routing.Element) error { return nil })

	require.NoError(t, res.Err)
	// Five steps, the first immediate: at least four intervals.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestPlayer_NewPlayCancelsPrevious(t *testing.T) {
	t.Parallel()

	p := NewPlayer(time.Hour, nil)
	noop := func(context.Context, int, routing.Element) error { return nil }

	first := p.Play(t.Context(), samplePath(), noop)
	second := p.Play(t.Context(), samplePath(), noop)

	res := <-first
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, uint64(1), res.Generation)
	assert.LessOrEqual(t, res.Played, 1)
	assert.Equal(t, uint64(2), p.Generation())

	p.Stop()
	res = <-second
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, uint64(2), res.Generation)
}

func TestPlayer_RefusesIncompletePath(t *testing.T) {
	t.Parallel()

	p := NewPlayer(0, nil)
	path := samplePath()
	path[1] = routing.Element{ID: "edges0n0"}
	called := false

	res := <-p.Play(t.Context(), path, func(context.Context, int, routing.Element) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, res.Err, ErrIncompletePath)
	assert.False(t, called)
	assert.Equal(t, uint64(0), p.Generation())

	res = <-p.Play(t.Context(), nil, nil)
	assert.ErrorIs(t, res.Err, ErrIncompletePath)
}

func TestPlayer_StepErrorStops(t *testing.T) {
	t.Parallel()

	p := NewPlayer(0, nil)
	boom := errors.New("render failed")

	res := <-p.Play(t.Context(), samplePath(), func(_ context.Context, i int, _ routing.Element) error {
		if i == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 2, res.Played)
}

func TestPlayer_ParentContextCancel(t *testing.T) {
	t.Parallel()

	p := NewPlayer(time.Hour, nil)
	ctx, cancel := context.WithCancel(t.Context())

	done := p.Play(ctx, samplePath(), func(context.Context, int, routing.Element) error { return nil })
	cancel()

	res := <-done
	assert.ErrorIs(t, res.Err, context.Canceled)
}
