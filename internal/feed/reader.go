package feed

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/contentbot/internal/logger"
)

const DefaultItemsPerSource = 5

// Reader fetches configured sources and normalizes them into entries.
type Reader struct {
	client      *http.Client
	perSource   int
	concurrency int
	userAgent   string
}

type Option func(*Reader)

// WithHTTPClient overrides the client used for feed downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) { r.client = c }
}

// WithItemsPerSource caps how many of the most recent items each source contributes.
func WithItemsPerSource(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.perSource = n
		}
	}
}

// WithConcurrency bounds parallel source downloads.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{
		client:      &http.Client{Timeout: 30 * time.Second},
		perSource:   DefaultItemsPerSource,
		concurrency: 4,
		userAgent:   "contentbot/1.0 (+feed reader)",
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Fetch downloads every source and returns the flat list of entries in source
// order. A source that fails to download or parse contributes nothing; the
// failure is logged, never returned.
func (r *Reader) Fetch(ctx context.Context, sources []Source) []Entry {
	perSource := make([][]Entry, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			entries, err := r.fetchSource(gctx, src)
			if err != nil {
				logger.Warn("feed fetch failed", "source", src.Label, "url", src.URL, "error", err)
				return nil
			}
			perSource[i] = entries
			logger.Debug("feed loaded", "source", src.Label, "entries", len(entries))
			return nil
		})
	}
	_ = g.Wait()

	var all []Entry
	ok := 0
	for _, entries := range perSource {
		if entries != nil {
			ok++
		}
		all = append(all, entries...)
	}
	logger.Info("feeds processed", "ok", ok, "total", len(sources), "entries", len(all))
	return all
}

func (r *Reader) fetchSource(ctx context.Context, src Source) ([]Entry, error) {
	parser := gofeed.NewParser()
	parser.Client = r.client
	parser.UserAgent = r.userAgent

	parsed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if e, ok := Normalize(item, src.Label); ok {
			entries = append(entries, e)
		}
	}

	// Most recent first; undated items keep feed order after dated ones.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
	if len(entries) > r.perSource {
		entries = entries[:r.perSource]
	}
	return entries, nil
}
