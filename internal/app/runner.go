package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/metrics"
	"github.com/deusflow/contentbot/internal/pipeline"
	"github.com/deusflow/contentbot/internal/publisher"
)

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

type Pipeline interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Runner serializes pipeline runs. Scheduled and manual runs queue on the
// same lock so two runs never race on the existence check.
type Runner struct {
	mu       sync.Mutex
	running  atomic.Bool
	pipeline Pipeline
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

func NewRunner(p Pipeline, m *metrics.Metrics) *Runner {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Runner{pipeline: p, metrics: m}
}

// Run executes one pipeline pass, waiting for any run already in progress.
func (r *Runner) Run(ctx context.Context, trigger string) (pipeline.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running.Store(true)
	defer r.running.Store(false)

	start := time.Now()
	res, err := r.pipeline.Run(ctx)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	r.metrics.RecordRun(trigger, string(res.Outcome), time.Since(start), errMsg)

	log := logger.With("run_id", res.RunID, "trigger", trigger, "outcome", res.Outcome)
	if err != nil {
		log.Error("pipeline run failed", "error", err)
	} else {
		log.Info("pipeline run finished", "duration", time.Since(start))
	}
	return res, err
}

// Busy reports whether a run is in progress.
func (r *Runner) Busy() bool {
	return r.running.Load()
}

// Trigger starts a detached manual run and returns at once. report, when
// set, receives a single status line for the admin as the last step of the
// run, so Wait also covers delivering it.
func (r *Runner) Trigger(ctx context.Context, report func(status string)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, err := r.Run(ctx, TriggerManual)
		if report != nil {
			report(StatusText(res, err))
		}
	}()
}

// Wait blocks until every detached run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Schedule runs the pipeline after first, then every interval, until ctx
// is cancelled.
func (r *Runner) Schedule(ctx context.Context, first, every time.Duration) error {
	logger.Info("scheduler started", "first_run_in", first, "interval", every)

	timer := time.NewTimer(first)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		_, _ = r.Run(ctx, TriggerScheduled)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StatusText renders a run result for the admin chat.
func StatusText(res pipeline.Result, err error) string {
	switch res.Outcome {
	case pipeline.OutcomePublished:
		return fmt.Sprintf("✅ Published: %s\n%s", res.Title, res.ArticleURL)
	case pipeline.OutcomeNoCandidates:
		return "ℹ️ No entries could be read from the feeds."
	case pipeline.OutcomeAllKnown:
		return "ℹ️ Nothing new: every entry is already published."
	case pipeline.OutcomeDuplicate:
		return fmt.Sprintf("ℹ️ Skipped as a duplicate of a recent post: %s", res.Title)
	case pipeline.OutcomeSendFailed:
		var sendErr *publisher.SendError
		if errors.As(err, &sendErr) {
			return fmt.Sprintf("⚠️ Post %s was saved but the channel message failed: %v", sendErr.PostID, sendErr.Err)
		}
	}
	if err != nil {
		return fmt.Sprintf("❌ Run failed (%s): %v", res.Outcome, err)
	}
	return fmt.Sprintf("Run finished: %s", res.Outcome)
}
