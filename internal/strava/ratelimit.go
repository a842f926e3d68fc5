package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava enforces two rolling quotas, reported back on every response:
// 100 requests per 15 minutes and 1000 per day.
const (
	shortWindow        = 15 * time.Minute
	defaultShortLimit  = 100
	defaultDailyLimit  = 1000
	defaultMinInterval = 150 * time.Millisecond // ~6.6 req/s pacing
)

// quotaWindow tracks usage against one rolling limit.
type quotaWindow struct {
	limit    int
	used     int
	resetsAt time.Time
}

// rollover zeroes usage once the window has elapsed.
func (w *quotaWindow) rollover(now, next time.Time) {
	if !now.Before(w.resetsAt) {
		w.used = 0
		w.resetsAt = next
	}
}

func (w *quotaWindow) exhausted() bool { return w.used >= w.limit }

func (w *quotaWindow) remaining() int { return w.limit - w.used }

// RateLimiter gates all outbound Strava calls against both quota windows
// plus a minimum inter-request interval. One ranking computation can fan out
// to a request per registered athlete, so the limiter is shared by every
// consumer of the client.
type RateLimiter struct {
	mu    sync.Mutex
	short quotaWindow
	daily quotaWindow

	minInterval time.Duration
	lastRequest time.Time

	now func() time.Time
}

// NewRateLimiter creates a limiter seeded with Strava's published quotas.
// The real limits arrive with the first response headers.
func NewRateLimiter() *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		short:       quotaWindow{limit: defaultShortLimit, resetsAt: now.Add(shortWindow)},
		daily:       quotaWindow{limit: defaultDailyLimit, resetsAt: nextDailyReset(now)},
		minInterval: defaultMinInterval,
		now:         time.Now,
	}
}

func nextDailyReset(now time.Time) time.Time {
	return now.Truncate(24 * time.Hour).Add(24 * time.Hour)
}

// Wait blocks until a request may be sent without exceeding a quota, then
// consumes one slot from each window. Cancellation of ctx aborts the wait
// with ctx.Err(); the limiter stays usable for later callers.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()

	for {
		now := r.now()
		r.short.rollover(now, now.Add(shortWindow))
		r.daily.rollover(now, nextDailyReset(now))

		var pause time.Duration
		switch {
		case r.short.exhausted():
			pause = r.short.resetsAt.Sub(now)
		case r.daily.exhausted():
			pause = r.daily.resetsAt.Sub(now)
		default:
			if since := now.Sub(r.lastRequest); since < r.minInterval {
				pause = r.minInterval - since
			}
		}

		if pause <= 0 {
			break
		}
		if err := r.sleep(ctx, pause); err != nil {
			// sleep returns without the lock held on error.
			return err
		}
	}

	r.short.used++
	r.daily.used++
	r.lastRequest = r.now()
	r.mu.Unlock()
	return nil
}

// sleep releases the lock for the duration of the pause so other callers can
// read limiter state, and re-takes it before a nil return. On cancellation
// the lock stays released.
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		r.mu.Lock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders syncs limiter state with the quota headers Strava
// attaches to every response: X-RateLimit-Limit "100,1000" and
// X-RateLimit-Usage "34,512". Malformed values are ignored.
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parseQuotaPair(h.Get("X-RateLimit-Usage")); ok {
		r.short.used = short
		r.daily.used = daily
	}
	if short, daily, ok := parseQuotaPair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit = short
		r.daily.limit = daily
	}
}

// parseQuotaPair parses Strava's "short,daily" header format.
func parseQuotaPair(v string) (short, daily int, ok bool) {
	parts := strings.SplitN(v, ",", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	short, errShort := strconv.Atoi(strings.TrimSpace(parts[0]))
	daily, errDaily := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errShort != nil || errDaily != nil {
		return 0, 0, false
	}
	return short, daily, true
}

// Status returns how many requests remain in each window.
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.remaining(), r.daily.remaining()
}
