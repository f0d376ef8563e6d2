// Package scraper fetches an article page and extracts its readable text.
// The pipeline uses it when a feed only carries a teaser.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoContent = errors.New("no article content found")

const (
	minParagraphLen = 40
	maxContentLen   = 6000
)

// ArticleContent is the extracted page text.
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

type Scraper struct {
	client    *http.Client
	userAgent string
}

func New(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scraper{client: client, userAgent: "contentbot/1.0 (+https://t.me)"}
}

// Extract downloads url and returns the article body.
func (s *Scraper) Extract(ctx context.Context, url string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	content := extractContent(doc)
	if content == "" {
		return nil, ErrNoContent
	}

	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// Selectors are tried in order; the first one yielding paragraphs wins.
var contentSelectors = []string{
	"article .entry-content p",
	"article .article-body p",
	".article-content p",
	".post-content p",
	".entry-content p",
	"article p",
	"main p",
	"#content p",
}

func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, aside, form, figure figcaption").Remove()

	var paragraphs []string
	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if len(text) >= minParagraphLen && !isJunk(text) {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	return limit(paragraphs)
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	for _, selector := range []string{"h1", "title"} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"cookie", "subscribe to", "sign up for", "newsletter",
	"all rights reserved", "advertisement",
}

func isJunk(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// limit keeps whole paragraphs up to maxContentLen bytes.
func limit(paragraphs []string) string {
	var out []string
	total := 0
	for _, p := range paragraphs {
		if total+len(p) > maxContentLen && len(out) > 0 {
			break
		}
		out = append(out, p)
		total += len(p) + 2
	}
	return strings.Join(out, "\n\n")
}
