// Package sitemap renders the website sitemap from stored posts and
// portfolio items.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/storage"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type Source interface {
	AllPosts(ctx context.Context) ([]storage.Post, error)
	AllPortfolio(ctx context.Context) ([]storage.PortfolioItem, error)
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

var staticPages = []struct {
	path     string
	priority string
}{
	{"", "0.9"},
	{"blog.html", "0.8"},
	{"portfolio.html", "0.8"},
}

// Collect lists every sitemap entry. A collection that cannot be read is
// logged and left out; the static pages are always present.
func Collect(ctx context.Context, src Source, baseURL string, now time.Time) []URL {
	baseURL = strings.TrimRight(baseURL, "/")
	today := day(now, now)

	var urls []URL
	for _, p := range staticPages {
		urls = append(urls, URL{
			Loc:        baseURL + "/" + p.path,
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   p.priority,
		})
	}

	posts, err := src.AllPosts(ctx)
	if err != nil {
		logger.Error("failed to read posts for sitemap", "error", err)
	}
	for _, p := range posts {
		urls = append(urls, URL{
			Loc:        baseURL + "/post.html?id=" + p.ID,
			LastMod:    day(p.CreatedAt, now),
			ChangeFreq: "monthly",
			Priority:   "1.0",
		})
	}
	logger.Info("sitemap posts collected", "count", len(posts))

	items, err := src.AllPortfolio(ctx)
	if err != nil {
		logger.Error("failed to read portfolio for sitemap", "error", err)
	}
	for _, it := range items {
		urls = append(urls, URL{
			Loc:        baseURL + "/portfolio-item.html?id=" + it.ID,
			LastMod:    day(it.CreatedAt, now),
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}
	logger.Info("sitemap portfolio items collected", "count", len(items))

	return urls
}

// Build renders the sitemap document.
func Build(ctx context.Context, src Source, baseURL string, now time.Time) ([]byte, error) {
	set := urlSet{Xmlns: xmlns, URLs: Collect(ctx, src, baseURL, now)}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// WriteFile builds the sitemap and writes it to path.
func WriteFile(ctx context.Context, src Source, baseURL, path string, now time.Time) (int, error) {
	data, err := Build(ctx, src, baseURL, now)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return strings.Count(string(data), "<url>"), nil
}

func day(t, fallback time.Time) string {
	if t.IsZero() {
		t = fallback
	}
	return t.UTC().Format("2006-01-02")
}
