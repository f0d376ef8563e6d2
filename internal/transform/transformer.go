// Package transform rewrites a feed entry into a localized article using a
// generative model and attaches the title embedding.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deusflow/contentbot/internal/ai"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/ratelimit"
	"github.com/deusflow/contentbot/internal/retry"
)

type Transformer struct {
	gen      ai.Generator
	emb      ai.Embedder
	language string
	retry    retry.RetryConfig
	log      *slog.Logger
}

func New(gen ai.Generator, emb ai.Embedder, language string, rc retry.RetryConfig) *Transformer {
	if language == "" {
		language = "Uzbek"
	}
	return &Transformer{
		gen:      gen,
		emb:      emb,
		language: language,
		retry:    rc,
		log:      logger.Logger,
	}
}

// Transform produces a validated Article or an error; nothing partial is
// ever returned.
func (t *Transformer) Transform(ctx context.Context, title, summary string) (*Article, error) {
	prompt := buildPrompt(t.language, Sanitize(title), Sanitize(summary))

	var article *Article
	err := retry.WithRetry(ctx, t.retry, func() error {
		raw, err := t.gen.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, ratelimit.ErrBudgetExhausted) {
				return retry.Permanent(err)
			}
			return err
		}
		parsed, err := Parse(raw)
		if err != nil {
			t.log.Warn("model response rejected", "error", err)
			return err
		}
		article = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate article: %w", err)
	}

	vec, err := t.emb.Embed(ctx, article.Title)
	if err != nil {
		return nil, fmt.Errorf("embed title: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed title: %w", ai.ErrEmptyResponse)
	}
	article.TitleEmbedding = vec

	return article, nil
}
