package feed

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractImage finds the lead image of an entry. Precedence: the first
// media:content explicitly typed as an image, then the first image enclosure,
// then the first <img> in the HTML body or summary. References are resolved
// against the entry link; anything that does not end up as an absolute
// http(s) URL is skipped. Empty when none match.
func ExtractImage(e Entry) string {
	for _, m := range e.Media {
		if m.Medium == "image" || strings.HasPrefix(m.Type, "image/") {
			if u := resolveImage(e.Link, m.URL); u != "" {
				return u
			}
		}
	}

	for _, enc := range e.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			if u := resolveImage(e.Link, enc.URL); u != "" {
				return u
			}
		}
	}

	for _, html := range []string{e.Content, e.Description} {
		if u := resolveImage(e.Link, firstInlineImage(html)); u != "" {
			return u
		}
	}
	return ""
}

// resolveImage turns src into an absolute http(s) URL, or "".
func resolveImage(base, src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if b, err := url.Parse(base); err == nil && b.IsAbs() {
		ref = b.ResolveReference(ref)
	}
	if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return ""
	}
	return ref.String()
}

func firstInlineImage(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var src string
	doc.Find("img[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if v, ok := s.Attr("src"); ok && strings.TrimSpace(v) != "" {
			src = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return src
}
