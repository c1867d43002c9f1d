package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limits holds the per-client request ceilings for the three time windows and
// the retention window for idle-client eviction.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
	Retention time.Duration // evict clients idle longer than this
}

// DefaultLimits mirrors the historical service defaults.
var DefaultLimits = Limits{
	PerMinute: 60,
	PerHour:   1000,
	PerDay:    10000,
	Retention: 24 * time.Hour,
}

// clientBuckets groups the three windows for one client identity.
type clientBuckets struct {
	minute   *TokenBucket
	hour     *TokenBucket
	day      *TokenBucket
	lastSeen time.Time
}

// Limiter enforces per-client ceilings across minute, hour and day windows.
// Buckets are created lazily on first sight of a client; creation is atomic
// per key under the limiter's mutex.
type Limiter struct {
	mu      sync.Mutex
	limits  Limits
	clients map[string]*clientBuckets
	logger  zerolog.Logger

	now func() time.Time
}

// NewLimiter creates a limiter with the given ceilings.
func NewLimiter(limits Limits, logger zerolog.Logger) *Limiter {
	return &Limiter{
		limits:  limits,
		clients: make(map[string]*clientBuckets),
		logger:  logger.With().Str("component", "ratelimit").Logger(),
		now:     time.Now,
	}
}

// Admit decides whether one request from the client is allowed. Windows are
// evaluated strictly minute, then hour, then day; a denial stops evaluation
// immediately. The minute bucket stays debited when a later window denies;
// that asymmetry is deliberate, preserved admission behavior.
func (l *Limiter) Admit(clientID string) bool {
	buckets := l.bucketsFor(clientID)

	if !buckets.minute.Consume(1) {
		l.logger.Warn().Str("client", clientID).Str("window", "minute").Msg("Rate limit exceeded")
		return false
	}
	if !buckets.hour.Consume(1) {
		l.logger.Warn().Str("client", clientID).Str("window", "hour").Msg("Rate limit exceeded")
		return false
	}
	if !buckets.day.Consume(1) {
		l.logger.Warn().Str("client", clientID).Str("window", "day").Msg("Rate limit exceeded")
		return false
	}
	return true
}

// bucketsFor returns the client's bucket group, creating it on first sight.
func (l *Limiter) bucketsFor(clientID string) *clientBuckets {
	l.mu.Lock()
	defer l.mu.Unlock()

	buckets, ok := l.clients[clientID]
	if !ok {
		buckets = &clientBuckets{
			minute: NewTokenBucket(float64(l.limits.PerMinute), windowInterval(time.Minute, l.limits.PerMinute)),
			hour:   NewTokenBucket(float64(l.limits.PerHour), windowInterval(time.Hour, l.limits.PerHour)),
			day:    NewTokenBucket(float64(l.limits.PerDay), windowInterval(24*time.Hour, l.limits.PerDay)),
		}
		l.clients[clientID] = buckets
	}
	buckets.lastSeen = l.now()
	return buckets
}

// Reset discards all rate state for a client. Administrative use only.
func (l *Limiter) Reset(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, clientID)
}

// Sweep evicts clients idle longer than the retention window. Intended to run
// periodically from a scheduler; best effort, not correctness-critical.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.limits.Retention)
	evicted := 0
	for id, buckets := range l.clients {
		if buckets.lastSeen.Before(cutoff) {
			delete(l.clients, id)
			evicted++
		}
	}
	if evicted > 0 {
		l.logger.Debug().Int("evicted", evicted).Int("remaining", len(l.clients)).Msg("Swept idle rate limit clients")
	}
}

// ClientCount returns the number of tracked client identities.
func (l *Limiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// windowInterval returns the time to accrue one token so that ceiling tokens
// accrue over the whole window.
func windowInterval(window time.Duration, ceiling int) time.Duration {
	if ceiling <= 0 {
		return window
	}
	return window / time.Duration(ceiling)
}
