package pipeline

import (
	"context"
	"log/slog"

	"github.com/deusflow/contentbot/internal/feed"
)

// LinkChecker looks a canonical link up among stored posts.
type LinkChecker interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
}

// ExistenceFilter answers whether a link was already published. A lookup
// error counts as "exists" so an unreachable store suppresses publishing
// instead of risking a repost.
type ExistenceFilter struct {
	store LinkChecker
	log   *slog.Logger
}

func NewExistenceFilter(store LinkChecker, log *slog.Logger) *ExistenceFilter {
	return &ExistenceFilter{store: store, log: log}
}

func (f *ExistenceFilter) Exists(ctx context.Context, link string) bool {
	exists, err := f.store.ExistsByLink(ctx, link)
	if err != nil {
		f.log.Warn("existence check failed, skipping entry", "link", link, "error", err)
		return true
	}
	return exists
}

// Filter keeps the entries whose link is not stored yet, dropping repeats
// of a link within entries.
func (f *ExistenceFilter) Filter(ctx context.Context, entries []feed.Entry) []feed.Entry {
	seen := make(map[string]struct{}, len(entries))
	var fresh []feed.Entry
	for _, e := range entries {
		if _, dup := seen[e.Link]; dup {
			continue
		}
		seen[e.Link] = struct{}{}

		if f.Exists(ctx, e.Link) {
			f.log.Debug("already published or unknown", "link", e.Link)
			continue
		}
		fresh = append(fresh, e)
	}
	return fresh
}

// SelectNewest returns the entry with the latest publish time. On ties the
// earliest entry in input order wins.
func SelectNewest(entries []feed.Entry) (feed.Entry, bool) {
	if len(entries) == 0 {
		return feed.Entry{}, false
	}
	best := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Published.After(entries[best].Published) {
			best = i
		}
	}
	return entries[best], true
}
