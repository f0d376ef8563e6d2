// Package similarity flags candidates whose title is semantically close to a
// recently published post.
package similarity

import (
	"context"
	"log/slog"

	"github.com/deusflow/contentbot/internal/ai"
	"github.com/deusflow/contentbot/internal/cache"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/storage"
)

const (
	DefaultWindow    = 50
	DefaultThreshold = 0.90
)

// RecentPosts is the slice of the store the filter reads.
type RecentPosts interface {
	Recent(ctx context.Context, limit int) ([]storage.Post, error)
}

type Filter struct {
	store     RecentPosts
	embedder  ai.Embedder
	cache     *cache.Cache[[]float32]
	window    int
	threshold float64
	log       *slog.Logger
}

type Option func(*Filter)

func WithWindow(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.window = n
		}
	}
}

func WithThreshold(t float64) Option {
	return func(f *Filter) {
		if t > 0 {
			f.threshold = t
		}
	}
}

// WithCache reuses title embeddings across runs.
func WithCache(c *cache.Cache[[]float32]) Option {
	return func(f *Filter) { f.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) { f.log = l }
}

func NewFilter(store RecentPosts, embedder ai.Embedder, opts ...Option) *Filter {
	f := &Filter{
		store:     store,
		embedder:  embedder,
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		log:       logger.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsDuplicate reports whether title is strictly more similar than the
// threshold to any of the last window posts. Every failure reports false so
// the pipeline keeps publishing when the store or the embedder is down.
func (f *Filter) IsDuplicate(ctx context.Context, title string) bool {
	recent, err := f.store.Recent(ctx, f.window)
	if err != nil {
		f.log.Warn("similarity check skipped: recent posts unavailable", "error", err)
		return false
	}

	var vectors [][]float32
	for _, p := range recent {
		if len(p.Embedding) > 0 {
			vectors = append(vectors, p.Embedding)
		}
	}
	if len(vectors) == 0 {
		return false
	}

	vec, err := f.embed(ctx, title)
	if err != nil {
		f.log.Warn("similarity check skipped: embedding failed", "error", err)
		return false
	}

	for _, v := range vectors {
		if score := Cosine(vec, v); score > f.threshold {
			f.log.Info("duplicate detected", "title", title, "score", score)
			return true
		}
	}
	return false
}

func (f *Filter) embed(ctx context.Context, title string) ([]float32, error) {
	var key string
	if f.cache != nil {
		key = cache.Key(title)
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
	}

	vec, err := f.embedder.Embed(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	if f.cache != nil {
		f.cache.Set(key, vec)
	}
	return vec, nil
}
