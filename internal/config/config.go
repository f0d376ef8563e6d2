// Package config assembles the process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/deusflow/contentbot/internal/feed"
)

type Config struct {
	// Telegram settings
	TelegramToken     string
	TelegramChannelID string
	AdminUserID       int64
	TelegramAPIURL    string

	// AI settings
	AIProvider           string // "gemini" or "openai"
	GeminiAPIKey         string
	GeminiModel          string
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	EmbeddingModel       string
	OpenAIEmbeddingModel string
	TargetLanguage       string
	LinkLabel            string // text of the website link in channel posts
	MaxAIRequests        int    // per day, 0 = unlimited

	// Feed settings
	FeedsConfigPath  string
	Feeds            []feed.Source
	ItemsPerFeed     int
	FetchConcurrency int

	// Dedup settings
	SimilarityWindow    int
	SimilarityThreshold float64
	EmbeddingCacheTTL   time.Duration

	// Scraper settings
	ScrapeEnabled   bool
	MinSummaryRunes int

	// Storage / website
	DatabaseURL    string
	WebsiteBaseURL string
	SitemapOutput  string

	// Scheduling
	FetchInterval time.Duration
	FirstRunDelay time.Duration

	// App settings
	Port           string
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// LoadEnvFiles loads .env files into the process environment when present.
// Values already set in the environment win.
func LoadEnvFiles(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			continue
		}
		loaded = append(loaded, f)
	}
	return loaded
}

// Load reads the environment and the feed list. A missing feed file leaves
// Feeds empty; Validate reports it.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		TelegramAPIURL:       "https://api.telegram.org",
		AIProvider:           "gemini",
		GeminiModel:          "gemini-1.5-flash",
		OpenAIModel:          "gpt-4o-mini",
		EmbeddingModel:       "text-embedding-004",
		OpenAIEmbeddingModel: "text-embedding-3-small",
		TargetLanguage:       "Uzbek",
		LinkLabel:            "Batafsil oʻqish",
		FeedsConfigPath:      "configs/feeds.yaml",
		ItemsPerFeed:         5,
		FetchConcurrency:     4,
		SimilarityWindow:     50,
		SimilarityThreshold:  0.90,
		EmbeddingCacheTTL:    6 * time.Hour,
		ScrapeEnabled:        true,
		MinSummaryRunes:      200,
		WebsiteBaseURL:       "https://evolvo-ai-website.onrender.com",
		SitemapOutput:        "sitemap.xml",
		FetchInterval:        time.Hour,
		FirstRunDelay:        10 * time.Second,
		Port:                 "10000",
		RequestTimeout:       30 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           2 * time.Second,
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChannelID = os.Getenv("TELEGRAM_CHANNEL_ID")
	cfg.TelegramAPIURL = getEnvOrDefault("TELEGRAM_API_URL", cfg.TelegramAPIURL)
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if v := os.Getenv("ADMIN_USER_ID"); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_USER_ID must be an integer: %w", err)
		}
		cfg.AdminUserID = id
	}

	cfg.AIProvider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", cfg.AIProvider))
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.EmbeddingModel = getEnvOrDefault("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.OpenAIEmbeddingModel = getEnvOrDefault("OPENAI_EMBEDDING_MODEL", cfg.OpenAIEmbeddingModel)
	cfg.TargetLanguage = getEnvOrDefault("TARGET_LANGUAGE", cfg.TargetLanguage)
	cfg.LinkLabel = getEnvOrDefault("LINK_LABEL", cfg.LinkLabel)
	cfg.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", cfg.MaxAIRequests)

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.ItemsPerFeed = getEnvIntOrDefault("ITEMS_PER_FEED", cfg.ItemsPerFeed)
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)

	cfg.SimilarityWindow = getEnvIntOrDefault("SIMILARITY_WINDOW", cfg.SimilarityWindow)
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SimilarityThreshold = val
		}
	}
	cfg.EmbeddingCacheTTL = getEnvDurationOrDefault("EMBEDDING_CACHE_TTL", cfg.EmbeddingCacheTTL)

	if v := os.Getenv("SCRAPE_ENABLED"); v != "" {
		cfg.ScrapeEnabled = v == "true"
	}
	cfg.MinSummaryRunes = getEnvIntOrDefault("MIN_SUMMARY_RUNES", cfg.MinSummaryRunes)

	cfg.WebsiteBaseURL = strings.TrimRight(getEnvOrDefault("WEBSITE_BASE_URL", cfg.WebsiteBaseURL), "/")
	cfg.SitemapOutput = getEnvOrDefault("SITEMAP_OUTPUT", cfg.SitemapOutput)

	cfg.FetchInterval = getEnvDurationOrDefault("FETCH_INTERVAL", cfg.FetchInterval)
	cfg.FirstRunDelay = getEnvDurationOrDefault("FIRST_RUN_DELAY", cfg.FirstRunDelay)

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	sources, err := feed.LoadSources(cfg.FeedsConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load feeds from %s: %w", cfg.FeedsConfigPath, err)
	}
	cfg.Feeds = sources

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Validate checks everything the pipeline needs before any component is built.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChannelID == "" {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID is required")
	}
	if c.AdminUserID == 0 {
		return fmt.Errorf("ADMIN_USER_ID is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.AIProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be 'gemini' or 'openai'")
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("no feeds configured in %s", c.FeedsConfigPath)
	}
	if c.ItemsPerFeed <= 0 {
		return fmt.Errorf("ITEMS_PER_FEED must be positive")
	}
	if c.SimilarityWindow <= 0 {
		return fmt.Errorf("SIMILARITY_WINDOW must be positive")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.FetchInterval <= 0 {
		return fmt.Errorf("FETCH_INTERVAL must be positive")
	}
	return nil
}

// ValidateStore is the subset used by the store-only subcommands (sitemap, check-store).
func (c *Config) ValidateStore() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
