package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrMalformed    = errors.New("malformed model response")
	ErrMissingField = errors.New("missing required field")
)

// Article is the structured record produced by the generative model.
type Article struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Content      string `json:"content"`
	TelegramPost string `json:"telegram_post"`
	Category     string `json:"category"`
	Hashtags     string `json:"hashtags"`

	// TitleEmbedding is filled after parsing and stored with the post.
	TitleEmbedding []float32 `json:"-"`
}

// StripFences removes a surrounding ```json ... ``` wrapper if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a language tag such as "json", with or without a newline after it
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r < utf8.RuneSelf && unicode.IsLetter(r)
	})
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes a model response into an Article. All six fields must be
// present and non-blank.
func Parse(raw string) (*Article, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	// Decode into a generic map first so a field of the wrong type is
	// reported as missing rather than as a decoder error.
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	get := func(key string) (string, error) {
		v, ok := fields[key].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		return strings.TrimSpace(v), nil
	}

	var a Article
	var err error
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"title", &a.Title},
		{"summary", &a.Summary},
		{"content", &a.Content},
		{"telegram_post", &a.TelegramPost},
		{"category", &a.Category},
		{"hashtags", &a.Hashtags},
	} {
		if *f.dst, err = get(f.key); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
