package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deusflow/contentbot/internal/logger"
)

// ErrBudgetExhausted is returned once the daily AI request budget is spent.
var ErrBudgetExhausted = errors.New("daily AI request budget exhausted")

// AIBudget counts generative and embedding calls against a daily limit.
type AIBudget struct {
	mu            sync.Mutex
	generateCount int
	embedCount    int
	totalCount    int
	maxTotal      int
	resetTime     time.Time
	now           func() time.Time
}

// NewAIBudget creates a budget; maxTotal <= 0 means unlimited.
func NewAIBudget(maxTotal int) *AIBudget {
	return &AIBudget{
		maxTotal:  maxTotal,
		now:       time.Now,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// UseGenerate records one generative call or refuses it.
func (b *AIBudget) UseGenerate() error {
	return b.use(&b.generateCount, "generate")
}

// UseEmbed records one embedding call or refuses it.
func (b *AIBudget) UseEmbed() error {
	return b.use(&b.embedCount, "embed")
}

func (b *AIBudget) use(counter *int, kind string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.maxTotal > 0 && b.totalCount >= b.maxTotal {
		logger.Warn("⚠️ AI budget reached", "kind", kind, "used", b.totalCount, "limit", b.maxTotal)
		return fmt.Errorf("%s: %w", kind, ErrBudgetExhausted)
	}

	*counter++
	b.totalCount++
	logger.Debug("📊 AI usage", "generate", b.generateCount, "embed", b.embedCount, "total", b.totalCount, "limit", b.maxTotal)
	return nil
}

// GetStats returns current budget statistics
func (b *AIBudget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"generate_used": b.generateCount,
		"embed_used":    b.embedCount,
		"total_used":    b.totalCount,
		"total_limit":   b.maxTotal,
		"reset_time":    b.resetTime,
	}
}

// checkReset resets counters if reset time has passed
func (b *AIBudget) checkReset() {
	if b.now().After(b.resetTime) {
		logger.Info("🔄 Resetting AI budget counters", "total_used", b.totalCount)
		b.generateCount = 0
		b.embedCount = 0
		b.totalCount = 0
		b.resetTime = b.now().Add(24 * time.Hour)
	}
}
