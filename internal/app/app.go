// Package app wires configuration into the running bot: store, AI
// providers, pipeline, Telegram polling, scheduler and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/contentbot/internal/ai"
	"github.com/deusflow/contentbot/internal/cache"
	"github.com/deusflow/contentbot/internal/config"
	"github.com/deusflow/contentbot/internal/feed"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/metrics"
	"github.com/deusflow/contentbot/internal/pipeline"
	"github.com/deusflow/contentbot/internal/publisher"
	"github.com/deusflow/contentbot/internal/ratelimit"
	"github.com/deusflow/contentbot/internal/retry"
	"github.com/deusflow/contentbot/internal/scraper"
	"github.com/deusflow/contentbot/internal/server"
	"github.com/deusflow/contentbot/internal/similarity"
	"github.com/deusflow/contentbot/internal/storage"
	"github.com/deusflow/contentbot/internal/telegram"
	"github.com/deusflow/contentbot/internal/transform"
)

type App struct {
	cfg      *config.Config
	store    storage.PostStore
	runner   *Runner
	bot      *telegram.Bot
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	closers  []func()
}

// OpenStore connects with retries. When every attempt fails the returned
// store reports ErrUnavailable on each call, so the bot keeps running
// and the existence check suppresses publishing.
func OpenStore(ctx context.Context, cfg *config.Config) storage.PostStore {
	var store storage.PostStore
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	}, func() error {
		s, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("store connection attempt failed", "error", err)
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		logger.Error("store unavailable, publishing is suspended", "error", err)
		return storage.Unavailable(err)
	}
	logger.Info("store connected")
	return store
}

func newProviders(ctx context.Context, cfg *config.Config) (ai.Generator, ai.Embedder, func(), error) {
	switch cfg.AIProvider {
	case "openai":
		c := ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIEmbeddingModel)
		return c, c, func() {}, nil
	case "gemini":
		c, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, c.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// New builds every component from cfg. cfg must have passed Validate.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	a := &App{cfg: cfg, metrics: m, registry: registry}

	a.store = OpenStore(ctx, cfg)
	a.closers = append(a.closers, func() {
		if err := a.store.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	})

	gen, emb, closeAI, err := newProviders(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init AI provider: %w", err)
	}
	a.closers = append(a.closers, closeAI)

	budget := ratelimit.NewAIBudget(cfg.MaxAIRequests)
	budgeted := ai.NewBudgeted(gen, emb, budget)

	embCache := cache.New[[]float32](cfg.EmbeddingCacheTTL, 10*time.Minute)
	a.closers = append(a.closers, embCache.Close)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	tg := telegram.NewClient(cfg.TelegramToken, telegram.WithBaseURL(cfg.TelegramAPIURL))

	deps := pipeline.Deps{
		Sources: cfg.Feeds,
		Feeds: feed.NewReader(
			feed.WithHTTPClient(httpClient),
			feed.WithItemsPerSource(cfg.ItemsPerFeed),
			feed.WithConcurrency(cfg.FetchConcurrency),
		),
		Store: a.store,
		Similarity: similarity.NewFilter(a.store, budgeted,
			similarity.WithWindow(cfg.SimilarityWindow),
			similarity.WithThreshold(cfg.SimilarityThreshold),
			similarity.WithCache(embCache),
		),
		Transformer: transform.New(budgeted, budgeted, cfg.TargetLanguage, retry.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       cfg.RetryDelay,
			Backoff:     true,
		}),
		Publisher:       publisher.New(a.store, tg, cfg.TelegramChannelID, cfg.WebsiteBaseURL, publisher.WithLinkLabel(cfg.LinkLabel)),
		MinSummaryRunes: cfg.MinSummaryRunes,
		Metrics:         m,
	}
	if cfg.ScrapeEnabled {
		deps.Scraper = scraper.New(httpClient)
	}

	a.runner = NewRunner(pipeline.New(deps), m)
	a.bot = telegram.NewBot(tg, a.runner, cfg.AdminUserID)
	return a, nil
}

// RunOnce performs a single pipeline pass.
func (a *App) RunOnce(ctx context.Context) (pipeline.Result, error) {
	return a.runner.Run(ctx, TriggerScheduled)
}

// Serve runs the HTTP server, Telegram polling and the scheduler until ctx
// is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(ctx, ":"+a.cfg.Port, server.NewRouter(a.metrics, a.registry))
	})
	g.Go(func() error {
		return a.bot.Run(ctx)
	})
	g.Go(func() error {
		return a.runner.Schedule(ctx, a.cfg.FirstRunDelay, a.cfg.FetchInterval)
	})

	logger.Info("content bot started", "feeds", len(a.cfg.Feeds), "interval", a.cfg.FetchInterval)
	err := g.Wait()
	a.runner.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
