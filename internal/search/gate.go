package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/donaldgifford/deal-finder/internal/metrics"
)

// DefaultInterval is the minimum spacing between outbound search calls.
const DefaultInterval = time.Second

// ErrDailyLimitReached is returned when the daily search call limit has been exhausted.
var ErrDailyLimitReached = errors.New("daily search limit reached")

// Gate enforces a minimum interval between the starts of successive calls.
// One Gate is shared by every search call in the process. Waiters are
// released in arrival order.
//
// The single-slot channel serializes waiters: goroutines blocked on a
// receive are woken first-in first-out, and the holder keeps the slot until
// its start time is stamped.
type Gate struct {
	slot     chan struct{}
	interval time.Duration
	last     time.Time

	maxDaily int64
	daily    atomic.Int64
	mu       sync.Mutex
	resetAt  time.Time
	nowFunc  func() time.Time
}

// GateOption configures the Gate.
type GateOption func(*Gate)

// WithDailyLimit caps the number of calls in a rolling 24-hour window.
// Zero disables the cap.
func WithDailyLimit(n int64) GateOption {
	return func(g *Gate) {
		g.maxDaily = n
	}
}

// WithGateNowFunc overrides the clock used for the daily window.
func WithGateNowFunc(f func() time.Time) GateOption {
	return func(g *Gate) {
		g.nowFunc = f
	}
}

// NewGate creates a gate with the given minimum interval. A non-positive
// interval uses DefaultInterval.
func NewGate(interval time.Duration, opts ...GateOption) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	g := &Gate{
		slot:     make(chan struct{}, 1),
		interval: interval,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.resetAt = g.nowFunc().Add(24 * time.Hour)
	g.slot <- struct{}{}
	return g
}

// Interval returns the configured minimum interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Wait blocks until the caller may start its call and returns the start
// instant recorded for it. A canceled context releases the caller with the
// context's error without consuming a slot.
func (g *Gate) Wait(ctx context.Context) (time.Time, error) {
	start := time.Now()
	defer func() {
		metrics.SearchGateWait.Observe(time.Since(start).Seconds())
	}()

	select {
	case <-g.slot:
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
	defer func() { g.slot <- struct{}{} }()

	if err := g.checkDaily(); err != nil {
		return time.Time{}, err
	}

	if !g.last.IsZero() {
		next := g.last.Add(g.interval)
		for {
			d := time.Until(next)
			if d <= 0 {
				break
			}
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return time.Time{}, ctx.Err()
			}
		}
	}

	// A context canceled while the timer fired still loses the slot.
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	g.last = now
	if g.maxDaily > 0 {
		metrics.SearchDailyUsage.Set(float64(g.daily.Add(1)))
	}
	return now, nil
}

// DailyCount returns the number of calls admitted in the current window.
func (g *Gate) DailyCount() int64 {
	return g.daily.Load()
}

// Remaining returns the calls left in the current window, or -1 when no
// daily limit is configured.
func (g *Gate) Remaining() int64 {
	if g.maxDaily <= 0 {
		return -1
	}
	remaining := g.maxDaily - g.daily.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Gate) checkDaily() error {
	if g.maxDaily <= 0 {
		return nil
	}

	g.mu.Lock()
	now := g.nowFunc()
	if now.After(g.resetAt) {
		g.daily.Store(0)
		g.resetAt = now.Add(24 * time.Hour)
	}
	g.mu.Unlock()

	if n := g.daily.Load(); n >= g.maxDaily {
		metrics.SearchDailyLimitHits.Inc()
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, n, g.maxDaily)
	}
	return nil
}
