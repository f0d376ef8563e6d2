// Package pipeline runs one ingestion pass: fetch feeds, drop known links,
// pick the newest entry, drop near-duplicates, rewrite it and publish it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/deusflow/contentbot/internal/feed"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/metrics"
	"github.com/deusflow/contentbot/internal/publisher"
	"github.com/deusflow/contentbot/internal/scraper"
	"github.com/deusflow/contentbot/internal/transform"
)

type Outcome string

const (
	OutcomeNoCandidates    Outcome = "no_candidates"
	OutcomeAllKnown        Outcome = "all_known"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeTransformFailed Outcome = "transform_failed"
	OutcomeStoreFailed     Outcome = "store_failed"
	OutcomeSendFailed      Outcome = "send_failed"
	OutcomePublished       Outcome = "published"
)

type FeedFetcher interface {
	Fetch(ctx context.Context, sources []feed.Source) []feed.Entry
}

type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, title string) bool
}

type Transformer interface {
	Transform(ctx context.Context, title, summary string) (*transform.Article, error)
}

type Publisher interface {
	Publish(ctx context.Context, a *transform.Article, entry feed.Entry) (publisher.Result, error)
}

type FullTextExtractor interface {
	Extract(ctx context.Context, url string) (*scraper.ArticleContent, error)
}

// Result summarises one run.
type Result struct {
	RunID      string
	Outcome    Outcome
	Fetched    int
	Fresh      int
	Title      string
	Link       string
	PostID     string
	ArticleURL string
}

type Deps struct {
	Sources     []feed.Source
	Feeds       FeedFetcher
	Store       LinkChecker
	Similarity  DuplicateChecker
	Transformer Transformer
	Publisher   Publisher

	// Optional. When set, entries whose summary is shorter than
	// MinSummaryRunes are enriched with the scraped page text.
	Scraper         FullTextExtractor
	MinSummaryRunes int

	Metrics *metrics.Metrics
}

type Pipeline struct {
	d Deps
}

func New(d Deps) *Pipeline {
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}
	return &Pipeline{d: d}
}

// Run executes the stages strictly in order; each may end the run early.
// The error is non-nil only for transform, store and send failures.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := logger.With("run_id", res.RunID)
	start := time.Now()
	log.Info("pipeline run started", "sources", len(p.d.Sources))

	entries := p.d.Feeds.Fetch(ctx, p.d.Sources)
	res.Fetched = len(entries)
	p.d.Metrics.AddCandidates(len(entries))
	if len(entries) == 0 {
		res.Outcome = OutcomeNoCandidates
		log.Info("no feed entries")
		return res, nil
	}

	fresh := NewExistenceFilter(p.d.Store, log).Filter(ctx, entries)
	res.Fresh = len(fresh)
	candidate, ok := SelectNewest(fresh)
	if !ok {
		res.Outcome = OutcomeAllKnown
		p.d.Metrics.StageStop("existence")
		log.Info("all entries already published", "fetched", res.Fetched)
		return res, nil
	}
	res.Title, res.Link = candidate.Title, candidate.Link
	log = log.With("link", candidate.Link)
	log.Info("candidate selected", "title", candidate.Title, "source", candidate.Source, "published", candidate.Published)

	if p.d.Similarity.IsDuplicate(ctx, candidate.Title) {
		res.Outcome = OutcomeDuplicate
		p.d.Metrics.StageStop("similarity")
		log.Info("candidate is a near-duplicate of a recent post")
		return res, nil
	}

	summary := p.summaryFor(ctx, candidate, log)
	article, err := p.d.Transformer.Transform(ctx, candidate.Title, summary)
	if err != nil {
		res.Outcome = OutcomeTransformFailed
		p.d.Metrics.StageStop("transform")
		log.Error("transform failed", "error", err)
		return res, fmt.Errorf("transform: %w", err)
	}

	pub, err := p.d.Publisher.Publish(ctx, article, candidate)
	res.PostID, res.ArticleURL = pub.PostID, pub.ArticleURL
	if err != nil {
		if errors.Is(err, publisher.ErrSendFailed) {
			res.Outcome = OutcomeSendFailed
			p.d.Metrics.StageStop("send")
		} else {
			res.Outcome = OutcomeStoreFailed
			p.d.Metrics.StageStop("store")
		}
		return res, fmt.Errorf("publish: %w", err)
	}

	res.Outcome = OutcomePublished
	p.d.Metrics.IncrementPublished()
	log.Info("pipeline run published a post", "post_id", res.PostID, "duration", time.Since(start))
	return res, nil
}

func (p *Pipeline) summaryFor(ctx context.Context, e feed.Entry, log *slog.Logger) string {
	if p.d.Scraper == nil || utf8.RuneCountInString(e.Summary) >= p.d.MinSummaryRunes {
		return e.Summary
	}
	full, err := p.d.Scraper.Extract(ctx, e.Link)
	if err != nil {
		log.Warn("full text unavailable, using feed summary", "error", err)
		return e.Summary
	}
	log.Debug("using scraped article text", "chars", len(full.Content))
	return full.Content
}
