package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssDoc(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel><title>Test</title><link>https://example.com</link><description>t</description>` +
		strings.Join(items, "\n") + `</channel></rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description>&lt;p&gt;About %s&lt;/p&gt;</description></item>`,
		title, link, published.Format(time.RFC1123Z), title)
}

func TestFetchCapsAndOrdersPerSource(t *testing.T) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	var items []string
	for i := 0; i < 8; i++ {
		items = append(items, rssItem(fmt.Sprintf("Story %d", i), fmt.Sprintf("https://example.com/%d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssDoc(items...))
	}))
	defer srv.Close()

	r := NewReader(WithItemsPerSource(5))
	entries := r.Fetch(context.Background(), []Source{{Label: "test", URL: srv.URL}})

	require.Len(t, entries, 5)
	assert.Equal(t, "Story 7", entries[0].Title)
	assert.Equal(t, "Story 3", entries[4].Title)
	assert.Equal(t, "test", entries[0].Source)
	assert.Equal(t, "About Story 7", entries[0].Summary)
	assert.True(t, entries[0].Published.Equal(base.Add(7*time.Hour)))
}

func TestFetchSkipsBrokenSources(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(rssItem("Only", "https://example.com/only", time.Now())))
	}))
	defer good.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed")
	}))
	defer garbage.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	entries := NewReader().Fetch(context.Background(), []Source{
		{Label: "garbage", URL: garbage.URL},
		{Label: "good", URL: good.URL},
		{Label: "down", URL: down.URL},
		{Label: "unreachable", URL: "http://127.0.0.1:1/feed"},
	})

	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/only", entries[0].Link)
}

func TestFetchKeepsSourceOrder(t *testing.T) {
	newSrv := func(link string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, rssDoc(rssItem(link, link, time.Now())))
		}))
	}
	a, b := newSrv("https://a.example/1"), newSrv("https://b.example/1")
	defer a.Close()
	defer b.Close()

	entries := NewReader(WithConcurrency(2)).Fetch(context.Background(), []Source{{Label: "a", URL: a.URL}, {Label: "b", URL: b.URL}})
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Source)
	assert.Equal(t, "b", entries[1].Source)
}

func TestNormalize(t *testing.T) {
	published := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		Title:           "  Title  ",
		Link:            " https://example.com/a ",
		Description:     "<p>Hello <b>world</b></p>",
		PublishedParsed: &published,
		Enclosures:      []*gofeed.Enclosure{{URL: "https://example.com/a.mp3", Type: "audio/mpeg"}},
		Extensions: ext.Extensions{
			"media": {
				"content": {{Attrs: map[string]string{"url": "https://example.com/a.jpg", "medium": "image"}}},
				"group": {{Children: map[string][]ext.Extension{
					"content": {{Attrs: map[string]string{"url": "https://example.com/b.png", "type": "image/png"}}},
				}}},
			},
		},
	}

	e, ok := Normalize(item, "src")
	require.True(t, ok)
	assert.Equal(t, "Title", e.Title)
	assert.Equal(t, "https://example.com/a", e.Link)
	assert.Equal(t, "Hello world", e.Summary)
	assert.True(t, e.Published.Equal(published))
	require.Len(t, e.Media, 2)
	assert.Equal(t, "image", e.Media[0].Medium)
	assert.Equal(t, "image/png", e.Media[1].Type)
	require.Len(t, e.Enclosures, 1)
}

func TestNormalizeRejectsIncomplete(t *testing.T) {
	_, ok := Normalize(&gofeed.Item{Title: "no link"}, "src")
	assert.False(t, ok)
	_, ok = Normalize(&gofeed.Item{Link: "https://example.com"}, "src")
	assert.False(t, ok)
	_, ok = Normalize(nil, "src")
	assert.False(t, ok)
}

func TestNormalizeFallsBackToUpdated(t *testing.T) {
	updated := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)
	e, ok := Normalize(&gofeed.Item{Title: "t", Link: "l", UpdatedParsed: &updated, Content: "<div>body</div>"}, "src")
	require.True(t, ok)
	assert.True(t, e.Published.Equal(updated))
	assert.Equal(t, "body", e.Summary)
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - label: A\n    url: https://a.example/rss\n  - url: https://b.example/rss\n"), 0o644))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "A", sources[0].Label)
	assert.Equal(t, "https://b.example/rss", sources[1].Label)
}

func TestLoadSourcesRejectsMissingURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - label: A\n"), 0o644))

	_, err := LoadSources(path)
	require.Error(t, err)
}
