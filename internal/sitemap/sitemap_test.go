package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/contentbot/internal/storage"
)

type fakeSource struct {
	posts        []storage.Post
	portfolio    []storage.PortfolioItem
	postsErr     error
	portfolioErr error
}

func (f fakeSource) AllPosts(context.Context) ([]storage.Post, error) {
	return f.posts, f.postsErr
}

func (f fakeSource) AllPortfolio(context.Context) ([]storage.PortfolioItem, error) {
	return f.portfolio, f.portfolioErr
}

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestCollect(t *testing.T) {
	src := fakeSource{
		posts: []storage.Post{
			{ID: "p1", CreatedAt: time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)},
			{ID: "p2"},
		},
		portfolio: []storage.PortfolioItem{{ID: "w1", CreatedAt: time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)}},
	}

	urls := Collect(context.Background(), src, "https://site.example/", now)
	require.Len(t, urls, 6)

	assert.Equal(t, URL{Loc: "https://site.example/", LastMod: "2025-06-15", ChangeFreq: "weekly", Priority: "0.9"}, urls[0])
	assert.Equal(t, "https://site.example/blog.html", urls[1].Loc)
	assert.Equal(t, "0.8", urls[2].Priority)

	assert.Equal(t, URL{Loc: "https://site.example/post.html?id=p1", LastMod: "2025-05-01", ChangeFreq: "monthly", Priority: "1.0"}, urls[3])
	assert.Equal(t, "2025-06-15", urls[4].LastMod)
	assert.Equal(t, URL{Loc: "https://site.example/portfolio-item.html?id=w1", LastMod: "2024-12-24", ChangeFreq: "monthly", Priority: "0.7"}, urls[5])
}

func TestCollectSkipsFailedCollection(t *testing.T) {
	src := fakeSource{
		postsErr:  errors.New("db down"),
		portfolio: []storage.PortfolioItem{{ID: "w1"}},
	}
	urls := Collect(context.Background(), src, "https://site.example", now)
	require.Len(t, urls, 4)
	assert.Contains(t, urls[3].Loc, "portfolio-item.html?id=w1")
}

func TestBuildAndWrite(t *testing.T) {
	src := fakeSource{posts: []storage.Post{{ID: "a&b", CreatedAt: now}}}

	data, err := Build(context.Background(), src, "https://site.example", now)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, out, "post.html?id=a&amp;b")

	var parsed urlSet
	require.NoError(t, xml.Unmarshal(data, &parsed))
	assert.Len(t, parsed.URLs, 4)

	path := filepath.Join(t.TempDir(), "sitemap.xml")
	n, err := WriteFile(context.Background(), src, "https://site.example", path, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}
