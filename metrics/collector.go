// Package metrics collects request volume, error volume, per-model usage and
// response-time samples. All mutating operations take a single coarse lock;
// critical sections are short and constant-time.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// DefaultSampleCapacity is the bound on the rolling response-time window.
const DefaultSampleCapacity = 1000

// DefaultRetention is how long per-minute counters are kept before the sweep
// discards them.
const DefaultRetention = 60 * time.Minute

// Snapshot is a point-in-time aggregate of collected metrics.
type Snapshot struct {
	TotalRequests       int64            `json:"total_requests"`
	TotalErrors         int64            `json:"total_errors"`
	ErrorRate           float64          `json:"error_rate"`
	AverageResponseTime float64          `json:"average_response_time"`
	RateLimitHits       int64            `json:"rate_limit_hits"`
	ModelUsage          map[string]int64 `json:"model_usage"`
	StatusCodes         map[string]int64 `json:"status_codes"`
	RequestsPerMinute   map[string]int64 `json:"requests_per_minute"`
	ErrorsPerMinute     map[string]int64 `json:"errors_per_minute"`
}

// Collector accumulates counters and a bounded rolling window of response-time
// samples. Safe for concurrent use from any goroutine.
type Collector struct {
	mu sync.Mutex

	requestCount  int64
	errorCount    int64
	rateLimitHits int64
	modelUsage    map[string]int64
	statusCodes   map[int]int64

	// Rolling response-time window: ring of the most recent samples.
	samples     []float64
	sampleHead  int
	sampleCount int

	requestsByMinute map[time.Time]int64
	errorsByMinute   map[time.Time]int64
	retention        time.Duration

	now func() time.Time
}

// NewCollector creates a collector with the given rolling-window capacity and
// per-minute retention. Zero values fall back to the defaults.
func NewCollector(sampleCapacity int, retention time.Duration) *Collector {
	if sampleCapacity <= 0 {
		sampleCapacity = DefaultSampleCapacity
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Collector{
		modelUsage:       make(map[string]int64),
		statusCodes:      make(map[int]int64),
		samples:          make([]float64, sampleCapacity),
		requestsByMinute: make(map[time.Time]int64),
		errorsByMinute:   make(map[time.Time]int64),
		retention:        retention,
		now:              time.Now,
	}
}

// RecordRequest records a new request for the given model.
func (c *Collector) RecordRequest(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount++
	c.modelUsage[model]++
	c.requestsByMinute[c.now().Truncate(time.Minute)]++

	requestsTotal.WithLabelValues(model).Inc()
}

// RecordResponseTime records one response-time sample. The oldest sample is
// discarded once the window is full.
func (c *Collector) RecordResponseTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples[c.sampleHead] = d.Seconds()
	c.sampleHead = (c.sampleHead + 1) % len(c.samples)
	if c.sampleCount < len(c.samples) {
		c.sampleCount++
	}

	responseTimeSeconds.Observe(d.Seconds())
}

// RecordError records an error with its HTTP status code.
func (c *Collector) RecordError(statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorCount++
	c.statusCodes[statusCode]++
	c.errorsByMinute[c.now().Truncate(time.Minute)]++

	errorsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRateLimit records a rate limit encounter.
func (c *Collector) RecordRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rateLimitHits++
	rateLimitHitsTotal.Inc()
}

// Summary returns a snapshot of collected metrics. The error rate is zero
// when no requests have been recorded.
func (c *Collector) Summary() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var mean float64
	if c.sampleCount > 0 {
		var sum float64
		for i := 0; i < c.sampleCount; i++ {
			sum += c.samples[i]
		}
		mean = sum / float64(c.sampleCount)
	}

	var errorRate float64
	if c.requestCount > 0 {
		errorRate = float64(c.errorCount) / float64(c.requestCount)
	}

	snap := Snapshot{
		TotalRequests:       c.requestCount,
		TotalErrors:         c.errorCount,
		ErrorRate:           errorRate,
		AverageResponseTime: mean,
		RateLimitHits:       c.rateLimitHits,
		ModelUsage:          make(map[string]int64, len(c.modelUsage)),
		StatusCodes:         make(map[string]int64, len(c.statusCodes)),
		RequestsPerMinute:   make(map[string]int64, len(c.requestsByMinute)),
		ErrorsPerMinute:     make(map[string]int64, len(c.errorsByMinute)),
	}
	for model, n := range c.modelUsage {
		snap.ModelUsage[model] = n
	}
	for code, n := range c.statusCodes {
		snap.StatusCodes[strconv.Itoa(code)] = n
	}
	for minute, n := range c.requestsByMinute {
		snap.RequestsPerMinute[minute.Format("15:04")] = n
	}
	for minute, n := range c.errorsByMinute {
		snap.ErrorsPerMinute[minute.Format("15:04")] = n
	}
	return snap
}

// Sweep discards per-minute counters older than the retention window.
// Intended to run periodically from a scheduler; best effort.
func (c *Collector) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.retention)
	for minute := range c.requestsByMinute {
		if minute.Before(cutoff) {
			delete(c.requestsByMinute, minute)
		}
	}
	for minute := range c.errorsByMinute {
		if minute.Before(cutoff) {
			delete(c.errorsByMinute, minute)
		}
	}
}

// Reset clears all collected metrics. Administrative use only.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount = 0
	c.errorCount = 0
	c.rateLimitHits = 0
	c.modelUsage = make(map[string]int64)
	c.statusCodes = make(map[int]int64)
	c.sampleHead = 0
	c.sampleCount = 0
	c.requestsByMinute = make(map[time.Time]int64)
	c.errorsByMinute = make(map[time.Time]int64)
}
