package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImagePrecedence(t *testing.T) {
	media := []Media{
		{URL: "https://cdn.example/video.mp4", Type: "video/mp4"},
		{URL: "https://cdn.example/media.jpg", Medium: "image"},
	}
	enclosures := []Media{
		{URL: "https://cdn.example/podcast.mp3", Type: "audio/mpeg"},
		{URL: "https://cdn.example/enclosure.png", Type: "image/png"},
	}
	html := `<p>text <img src="https://cdn.example/inline.gif"></p>`

	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"media wins", Entry{Media: media, Enclosures: enclosures, Content: html}, "https://cdn.example/media.jpg"},
		{"enclosure over inline", Entry{Enclosures: enclosures, Description: html}, "https://cdn.example/enclosure.png"},
		{"inline from body", Entry{Content: html}, "https://cdn.example/inline.gif"},
		{"inline from summary", Entry{Content: "<p>no image</p>", Description: html}, "https://cdn.example/inline.gif"},
		{"non-image media ignored", Entry{Media: media[:1], Enclosures: enclosures[:1]}, ""},
		{"media typed by mime", Entry{Media: []Media{{URL: "https://cdn.example/t.webp", Type: "image/webp"}}}, "https://cdn.example/t.webp"},
		{"nothing", Entry{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractImage(tt.entry))
		})
	}
}

func TestExtractImageSkipsEmptySrc(t *testing.T) {
	e := Entry{Content: `<img src=""><img src="https://cdn.example/second.jpg">`}
	assert.Equal(t, "https://cdn.example/second.jpg", ExtractImage(e))
}

func TestExtractImageResolvesAgainstLink(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"root relative", Entry{Link: "https://news.example/a/1", Description: `<p><img src="/img/lead.jpg"></p>`}, "https://news.example/img/lead.jpg"},
		{"path relative", Entry{Link: "https://news.example/a/1", Content: `<img src="lead.png">`}, "https://news.example/a/lead.png"},
		{"protocol relative", Entry{Link: "https://news.example/a/1", Content: `<img src="//cdn.example/x.jpg">`}, "https://cdn.example/x.jpg"},
		{"relative enclosure", Entry{Link: "http://news.example/a/1", Enclosures: []Media{{URL: "/e.png", Type: "image/png"}}}, "http://news.example/e.png"},
		{"relative without link", Entry{Content: `<img src="/img/lead.jpg">`}, ""},
		{"data uri", Entry{Link: "https://news.example/a/1", Content: `<img src="data:image/png;base64,AAAA">`}, ""},
		{"unusable media falls through", Entry{
			Media:   []Media{{URL: "ftp://files.example/m.jpg", Medium: "image"}},
			Content: `<img src="https://cdn.example/inline.jpg">`,
		}, "https://cdn.example/inline.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractImage(tt.entry))
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "", PlainText("   "))
	assert.Equal(t, "a b c", PlainText("<p>a</p>\n<p>b   c</p>"))
}
