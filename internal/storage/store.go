package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable is returned by every call on a store that failed to initialize.
var ErrUnavailable = errors.New("post store unavailable")

// Post is a published article. It is written once and never updated.
type Post struct {
	ID           string
	Title        string
	Summary      string
	Content      string
	Category     string
	ImageURL     string
	OriginalLink string
	CreatedAt    time.Time
	Embedding    []float32
}

// PortfolioItem is an entry of the website's portfolio collection; the bot
// only reads it for the sitemap.
type PortfolioItem struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// PostStore is the document-store contract the pipeline relies on.
type PostStore interface {
	// Insert persists p and returns the assigned identifier and creation time.
	Insert(ctx context.Context, p Post) (string, time.Time, error)
	// ExistsByLink reports whether a post with this exact original link exists.
	ExistsByLink(ctx context.Context, link string) (bool, error)
	// Recent returns up to limit posts, newest first.
	Recent(ctx context.Context, limit int) ([]Post, error)
	AllPosts(ctx context.Context) ([]Post, error)
	AllPortfolio(ctx context.Context) ([]PortfolioItem, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open picks a backend from the URL: sqlite://path, file:path or *.db use
// SQLite, anything else is treated as a PostgreSQL connection string.
func Open(ctx context.Context, url string) (PostStore, error) {
	switch {
	case url == "":
		return nil, errors.New("empty database url")
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"), url == ":memory:":
		return NewSQLite(ctx, url)
	default:
		return NewPostgres(ctx, url)
	}
}

// Unavailable wraps an initialization failure as a store value so callers
// never hold a nil store.
func Unavailable(cause error) PostStore {
	return unavailableStore{cause: cause}
}

type unavailableStore struct {
	cause error
}

func (u unavailableStore) err() error {
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (u unavailableStore) Insert(context.Context, Post) (string, time.Time, error) {
	return "", time.Time{}, u.err()
}

func (u unavailableStore) ExistsByLink(context.Context, string) (bool, error) {
	return false, u.err()
}

func (u unavailableStore) Recent(context.Context, int) ([]Post, error) { return nil, u.err() }

func (u unavailableStore) AllPosts(context.Context) ([]Post, error) { return nil, u.err() }

func (u unavailableStore) AllPortfolio(context.Context) ([]PortfolioItem, error) {
	return nil, u.err()
}

func (u unavailableStore) Count(context.Context) (int, error) { return 0, u.err() }

func (u unavailableStore) Close() error { return nil }

var postColumns = []string{
	"id", "title", "summary", "content", "category", "image_url", "original_link", "created_at", "embedding",
}
