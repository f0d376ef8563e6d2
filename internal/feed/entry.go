package feed

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Entry is one candidate item read from a source feed. Downstream code only
// sees this typed record, never the raw gofeed item.
type Entry struct {
	Source      string
	Title       string
	Link        string
	Published   time.Time
	Summary     string // plain text
	Content     string // raw HTML body, if the feed carries one
	Description string // raw HTML summary
	Media       []Media
	Enclosures  []Media
}

// Media is a media:content reference or an enclosure.
type Media struct {
	URL    string
	Type   string
	Medium string
}

// Normalize converts a parsed feed item. ok is false for items that cannot
// take part in deduplication (no link or no title).
func Normalize(item *gofeed.Item, source string) (Entry, bool) {
	if item == nil {
		return Entry{}, false
	}
	e := Entry{
		Source:      source,
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Content:     item.Content,
		Description: item.Description,
	}
	if e.Title == "" || e.Link == "" {
		return Entry{}, false
	}

	switch {
	case item.PublishedParsed != nil:
		e.Published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		e.Published = item.UpdatedParsed.UTC()
	}

	e.Summary = PlainText(item.Description)
	if e.Summary == "" {
		e.Summary = PlainText(item.Content)
	}

	e.Media = mediaContent(item.Extensions)
	for _, enc := range item.Enclosures {
		if enc == nil || strings.TrimSpace(enc.URL) == "" {
			continue
		}
		e.Enclosures = append(e.Enclosures, Media{URL: strings.TrimSpace(enc.URL), Type: strings.ToLower(enc.Type)})
	}
	return e, true
}

// mediaContent collects media:content entries, including those nested in media:group.
func mediaContent(extensions ext.Extensions) []Media {
	media, ok := extensions["media"]
	if !ok {
		return nil
	}
	var out []Media
	collect := func(list []ext.Extension) {
		for _, c := range list {
			url := strings.TrimSpace(c.Attrs["url"])
			if url == "" {
				continue
			}
			out = append(out, Media{
				URL:    url,
				Type:   strings.ToLower(c.Attrs["type"]),
				Medium: strings.ToLower(c.Attrs["medium"]),
			})
		}
	}
	collect(media["content"])
	for _, g := range media["group"] {
		collect(g.Children["content"])
	}
	return out
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
