// Package playback steps through a resolved path one element at a time.
//
// It sits on the presentation side of the routing core: a path is fully
// computed before playback starts and playback never touches the store.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Benny93/superpeer-go/internal/routing"
)

// ErrIncompletePath is returned for paths that are empty or contain
// missing elements. Such paths are never played.
var ErrIncompletePath = errors.New("path is empty or has missing elements")

// Step renders one element. It runs on the playback goroutine; returning an
// error stops the playback.
type Step func(ctx context.Context, index int, element routing.Element) error

// Result reports how a playback ended.
type Result struct {
	// Generation identifies the Play call that produced the result.
	Generation uint64
	// Played is the number of steps that completed.
	Played int
	// Err is nil when every step ran, context.Canceled when a newer Play
	// or Stop superseded this one.
	Err error
}

// Player plays paths sequentially. Starting a new playback cancels the one
// in flight.
type Player struct {
	limit  rate.Limit
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewPlayer creates a player pacing steps interval apart. Zero interval
// plays as fast as the steps allow.
func NewPlayer(interval time.Duration, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Player{limit: limit, logger: logger}
}

// Play starts playing path and returns a channel that receives exactly one
// Result once playback ends.
func (p *Player) Play(ctx context.Context, path routing.Path, step Step) <-chan Result {
	done := make(chan Result, 1)
	if !path.Complete() {
		done <- Result{Err: ErrIncompletePath}
		close(done)
		return done
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		res := p.run(runCtx, gen, path, step)
		p.logger.Debug("playback finished", "generation", gen, "played", res.Played, "error", res.Err)
		done <- res
	}()
	return done
}

func (p *Player) run(ctx context.Context, gen uint64, path routing.Path, step Step) Result {
	// Burst 1: the first step plays at once, each following one waits.
	limiter := rate.NewLimiter(p.limit, 1)
	res := Result{Generation: gen}

	for i, element := range path {
		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if err := step(ctx, i, element); err != nil {
			res.Err = err
			return res
		}
		res.Played++
	}
	return res
}

// Stop cancels the playback in flight, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Generation returns the number of playbacks started so far.
func (p *Player) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}
