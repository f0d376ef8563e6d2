// Package ai holds the generative-text and embedding collaborators.
package ai

import (
	"context"
	"errors"

	"github.com/deusflow/contentbot/internal/ratelimit"
)

// ErrEmptyResponse is returned when a provider answers without usable content.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Budgeted charges every call against a shared daily budget before
// delegating to the wrapped provider.
type Budgeted struct {
	gen    Generator
	emb    Embedder
	budget *ratelimit.AIBudget
}

func NewBudgeted(gen Generator, emb Embedder, budget *ratelimit.AIBudget) *Budgeted {
	return &Budgeted{gen: gen, emb: emb, budget: budget}
}

func (b *Budgeted) Generate(ctx context.Context, prompt string) (string, error) {
	if err := b.budget.UseGenerate(); err != nil {
		return "", err
	}
	return b.gen.Generate(ctx, prompt)
}

func (b *Budgeted) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := b.budget.UseEmbed(); err != nil {
		return nil, err
	}
	return b.emb.Embed(ctx, text)
}
