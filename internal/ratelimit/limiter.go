// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ratelimit paces calls to the model provider. A Limiter combines a
// per-minute sliding window, a minimum spacing between consecutive calls and
// a hard per-day cap keyed by the UTC date.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"designforge/internal/logging"
)

// ErrQuotaExceeded is returned by Acquire once the daily cap is reached.
var ErrQuotaExceeded = errors.New("ratelimit: daily request quota exhausted")

// DailyCounter persists the per-day call count outside the process so the
// daily cap holds across separate batch runs. Days are "2006-01-02" in UTC.
type DailyCounter interface {
	Count(ctx context.Context, day string) (int, error)
	Incr(ctx context.Context, day string) (int, error)
}

// Options configures a Limiter.
type Options struct {
	RPM int // max calls per rolling minute
	RPD int // max calls per UTC day

	// Spacing is the minimum gap between two calls. Zero means 60/RPM + 1s.
	Spacing time.Duration

	Counter DailyCounter // optional
	Logger  *slog.Logger

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Limiter is a long-lived pacing gate. Create one per process and share it
// across every model call. All methods are safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	rpm      int
	rpd      int
	spacing  time.Duration
	window   []time.Time // call timestamps within the last minute
	last     time.Time   // last call, or the end of the last provider back-off
	day      string      // UTC date the dayCount belongs to
	dayCount int
	counter  DailyCounter
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter from opts.
func New(opts Options) *Limiter {
	if opts.RPM < 1 {
		opts.RPM = 1
	}
	if opts.RPD < 1 {
		opts.RPD = 1
	}
	if opts.Spacing == 0 {
		opts.Spacing = DefaultSpacing(opts.RPM)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Limiter{
		rpm:     opts.RPM,
		rpd:     opts.RPD,
		spacing: opts.Spacing,
		counter: opts.Counter,
		logger:  opts.Logger,
		now:     opts.Now,
		sleep:   opts.Sleep,
	}
}

// DefaultSpacing returns the minimum gap between calls for a given RPM:
// 60/rpm seconds plus one second of headroom.
func DefaultSpacing(rpm int) time.Duration {
	if rpm < 1 {
		rpm = 1
	}
	return time.Minute/time.Duration(rpm) + time.Second
}

// Acquire blocks until a call may be made and records it. It returns
// ErrQuotaExceeded immediately when today's cap is spent, or the context
// error if ctx ends while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.rollover(ctx, now)

		if l.dayCount >= l.rpd {
			l.mu.Unlock()
			return ErrQuotaExceeded
		}

		wait := l.waitLocked(now)
		if wait <= 0 {
			l.window = append(l.window, now)
			l.last = now
			l.dayCount++
			day := l.day
			l.mu.Unlock()
			return l.persist(ctx, day)
		}
		l.mu.Unlock()

		l.logger.Debug("rate limiter waiting", "wait", wait.String())
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pause honours a provider back-off hint (Retry-After): it sleeps d and then
// restarts the spacing clock so the next call waits a full interval.
func (l *Limiter) Pause(ctx context.Context, d time.Duration) error {
	if d > 0 {
		l.logger.Info("rate limiter pausing for provider back-off", "wait", d.String())
		if err := l.sleep(ctx, d); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
	return nil
}

// Remaining returns how many calls are left for the current UTC day.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(context.Background(), l.now())
	if l.dayCount >= l.rpd {
		return 0
	}
	return l.rpd - l.dayCount
}

// rollover resets the daily counter when the UTC date changes and seeds it
// from the persistent counter when one is configured. Caller holds l.mu.
func (l *Limiter) rollover(ctx context.Context, now time.Time) {
	day := DayKey(now)
	if day == l.day {
		return
	}
	l.day = day
	l.dayCount = 0

	if l.counter == nil {
		return
	}
	n, err := l.counter.Count(ctx, day)
	if err != nil {
		l.logger.Warn("daily quota counter unavailable, using in-memory count", "day", day, "error", err)
		return
	}
	l.dayCount = n
}

// waitLocked returns how long the caller must wait before the next call.
// Caller holds l.mu.
func (l *Limiter) waitLocked(now time.Time) time.Duration {
	cutoff := now.Add(-time.Minute)
	valid := l.window[:0]
	for _, ts := range l.window {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	l.window = valid

	var wait time.Duration
	if !l.last.IsZero() {
		wait = l.last.Add(l.spacing).Sub(now)
	}
	if len(l.window) >= l.rpm {
		if w := l.window[0].Add(time.Minute).Sub(now); w > wait {
			wait = w
		}
	}
	return wait
}

// persist increments the shared counter. A counter that reports more calls
// than the cap (another run got there first) turns this call into a quota
// failure.
func (l *Limiter) persist(ctx context.Context, day string) error {
	if l.counter == nil {
		return nil
	}
	n, err := l.counter.Incr(ctx, day)
	if err != nil {
		l.logger.Warn("daily quota counter increment failed", "day", day, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if day == l.day && n > l.dayCount {
		l.dayCount = n
	}
	if n > l.rpd {
		return ErrQuotaExceeded
	}
	return nil
}

// DayKey returns the UTC calendar date of t as used for daily quotas.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
