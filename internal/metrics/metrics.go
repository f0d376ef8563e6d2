// Package metrics keeps the health snapshot served on /health and the
// Prometheus collectors served on /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	RunsTotal          int64
	CandidatesFetched  int64
	DuplicatesFiltered int64
	TransformFailures  int64
	PostsPublished     int64
	SendFailures       int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration

	// Status
	LastRunTime   time.Time
	LastOutcome   string
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool

	runs       *prometheus.CounterVec
	candidates prometheus.Counter
	stageDrops *prometheus.CounterVec
	published  prometheus.Counter
	duration   prometheus.Histogram
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IsHealthy: true,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentbot_runs_total",
			Help: "Pipeline runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentbot_candidates_fetched_total",
			Help: "Feed entries returned by the feed reader.",
		}),
		stageDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentbot_stage_stops_total",
			Help: "Runs stopped early, by stage.",
		}, []string{"stage"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentbot_posts_published_total",
			Help: "Posts stored and announced on the channel.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentbot_run_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.candidates, m.stageDrops, m.published, m.duration)
	}
	return m
}

func (m *Metrics) AddCandidates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesFetched += int64(n)
	m.candidates.Add(float64(n))
}

// StageStop counts a run that ended at stage without publishing.
func (m *Metrics) StageStop(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch stage {
	case "similarity":
		m.DuplicatesFiltered++
	case "transform":
		m.TransformFailures++
	case "send":
		m.SendFailures++
	}
	m.stageDrops.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncrementPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsPublished++
	m.published.Inc()
}

// RecordRun closes out a run. A non-empty errMsg marks the bot unhealthy
// until the next clean run.
func (m *Metrics) RecordRun(trigger, outcome string, d time.Duration, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RunsTotal++
	m.LastRunDuration = d
	m.TotalRunDuration += d
	m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunsTotal)
	m.LastRunTime = time.Now()
	m.LastOutcome = outcome

	if errMsg != "" {
		m.LastError = errMsg
		m.LastErrorTime = m.LastRunTime
		m.IsHealthy = false
	} else {
		m.IsHealthy = true
	}

	m.runs.WithLabelValues(trigger, outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"runs_total":              m.RunsTotal,
		"candidates_fetched":      m.CandidatesFetched,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"transform_failures":      m.TransformFailures,
		"posts_published":         m.PostsPublished,
		"send_failures":           m.SendFailures,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_outcome":            m.LastOutcome,
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
	if !m.LastRunTime.IsZero() {
		stats["last_run_time"] = m.LastRunTime.Format(time.RFC3339)
	}
	if !m.LastErrorTime.IsZero() {
		stats["last_error_time"] = m.LastErrorTime.Format(time.RFC3339)
	}
	return stats
}
