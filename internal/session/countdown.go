package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
)

// Countdown owns at most one ticking goroutine. Every restart bumps the
// generation so ticks already queued by a cancelled goroutine can be told
// apart and dropped.
//
// Reconcile and Generation are called from the session loop only.
type Countdown struct {
	interval time.Duration
	out      chan<- Event
	logger   *log.Logger

	key        RunKey
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewCountdown creates a stopped countdown that delivers EventTick into out
func NewCountdown(interval time.Duration, out chan<- Event, logger *log.Logger) *Countdown {
	if interval <= 0 {
		panic("Countdown: interval must be positive")
	}
	if out == nil {
		panic("Countdown: out cannot be nil")
	}
	if logger == nil {
		panic("Countdown: logger cannot be nil")
	}
	return &Countdown{interval: interval, out: out, logger: logger}
}

// Reconcile cancels the live timer and, if key says so, starts a fresh one.
// Nothing happens when key is unchanged. Returns true when a new timer was started.
func (c *Countdown) Reconcile(key RunKey) bool {
	if key == c.key {
		return false
	}
	c.key = key
	c.stop()

	if !key.Running {
		return false
	}

	c.generation++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	generation := c.generation
	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, "Countdown", func() { c.run(ctx, generation) })
	return true
}

// Generation returns the generation of the live timer, or 0 when stopped
func (c *Countdown) Generation() uint64 {
	if c.cancel == nil {
		return 0
	}
	return c.generation
}

// Shutdown stops the live timer and waits for its goroutine to exit
func (c *Countdown) Shutdown() {
	c.stop()
	c.key = RunKey{}
	c.wg.Wait()
}

func (c *Countdown) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) run(ctx context.Context, generation uint64) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case c.out <- Event{Kind: EventTick, Generation: generation}:
			case <-ctx.Done():
				return
			}
		}
	}
}
