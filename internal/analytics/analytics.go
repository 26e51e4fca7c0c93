// Package analytics is the pipeline telemetry sink. Every request through
// the response-resolution pipeline reports its exit state and elapsed
// wall-clock time here; the sink turns that into structured logs and
// Prometheus series.
//
// Hard requirement inherited from the pipeline's failure policy: nothing in
// this package may ever panic, error, or block the response path. Track()
// recovers from anything its collectors might throw.
package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	// pipelineResponses counts pipeline exits by source (precomputed, rule,
	// cache, ai, error); the label set is small and closed.
	pipelineResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_responses_total",
			Help: "Total assistant responses by resolution source.",
		},
		[]string{"source"},
	)

	// pipelineLatency records end-to-end pipeline duration per source.
	pipelineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assist_pipeline_duration_seconds",
			Help:    "Duration of the response-resolution pipeline in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// cacheHits counts response-cache hits by tier (durable, memory).
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assist_cache_hits_total",
			Help: "Response cache hits by tier.",
		},
		[]string{"tier"},
	)

	// breakerState gauges the completion-provider circuit breaker
	// (0 closed, 1 open, 2 half-open).
	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assist_breaker_state",
			Help: "Completion provider circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
	)

	// completionTokens accumulates tokens consumed by provider calls.
	completionTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assist_completion_tokens_total",
			Help: "Total completion tokens consumed.",
		},
	)
)

func init() {
	prometheus.MustRegister(pipelineResponses, pipelineLatency, cacheHits, breakerState, completionTokens)
}

// Event is one pipeline exit report.
type Event struct {
	Source  string        // "precomputed", "rule", "cache", "ai", or "error"
	Cached  bool          // whether the response came from a cache tier
	Tier    string        // cache tier on cache hits, "" otherwise
	Model   string        // model used, "" when no provider call happened
	Tokens  int           // tokens consumed, 0 when no provider call happened
	Elapsed time.Duration // wall-clock time from entry to exit
	UserID  string        // request user, "" for anonymous
	Err     error         // terminal error, nil on success
}

// Tracker records pipeline telemetry. The zero value is not usable; build
// one with NewTracker so the logger is set.
type Tracker struct {
	log zerolog.Logger
}

// NewTracker constructs a Tracker logging through log.
func NewTracker(log zerolog.Logger) *Tracker {
	return &Tracker{log: log}
}

// Track records one pipeline exit. It never panics and never returns an
// error; a telemetry hiccup must not become a chat failure.
func (t *Tracker) Track(ev Event) {
	defer func() {
		_ = recover()
	}()

	pipelineResponses.WithLabelValues(ev.Source).Inc()
	pipelineLatency.WithLabelValues(ev.Source).Observe(ev.Elapsed.Seconds())
	if ev.Cached && ev.Tier != "" {
		cacheHits.WithLabelValues(ev.Tier).Inc()
	}
	if ev.Tokens > 0 {
		completionTokens.Add(float64(ev.Tokens))
	}

	line := t.log.Info()
	if ev.Err != nil {
		line = t.log.Warn().Err(ev.Err)
	}
	line.
		Str("source", ev.Source).
		Bool("cached", ev.Cached).
		Str("model", ev.Model).
		Int("tokens", ev.Tokens).
		Dur("elapsed", ev.Elapsed).
		Str("user_id", ev.UserID).
		Msg("assist pipeline exit")
}

// SetBreakerState publishes the breaker gauge (0 closed, 1 open, 2 half-open).
func (t *Tracker) SetBreakerState(state int) {
	defer func() {
		_ = recover()
	}()
	breakerState.Set(float64(state))
}
