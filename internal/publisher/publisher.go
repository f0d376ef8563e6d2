// Package publisher persists a transformed article and announces it on the
// channel.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/contentbot/internal/feed"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/storage"
	"github.com/deusflow/contentbot/internal/transform"
)

const (
	// Telegram caps photo captions at 1024 characters.
	captionLimit = 1024
	messageLimit = 4096

	// DefaultLinkLabel is Uzbek ("read more") to match the default target language.
	DefaultLinkLabel = "Batafsil oʻqish"
)

// ErrSendFailed marks a post that was stored but never announced.
var ErrSendFailed = errors.New("channel send failed")

// SendError carries the id of the orphaned post.
type SendError struct {
	PostID string
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("post %s stored but not announced: %v", e.PostID, e.Err)
}

func (e *SendError) Unwrap() []error { return []error{ErrSendFailed, e.Err} }

type Inserter interface {
	Insert(ctx context.Context, p storage.Post) (string, time.Time, error)
}

type Channel interface {
	SendMessage(ctx context.Context, chatID, text string) error
	SendPhoto(ctx context.Context, chatID, photoURL, caption string) error
}

type Publisher struct {
	store     Inserter
	channel   Channel
	chatID    string
	baseURL   string
	linkLabel string
}

type Option func(*Publisher)

// WithLinkLabel sets the text of the link back to the website. Blank labels
// are ignored.
func WithLinkLabel(label string) Option {
	return func(p *Publisher) {
		if label = strings.TrimSpace(label); label != "" {
			p.linkLabel = label
		}
	}
}

func New(store Inserter, channel Channel, chatID, baseURL string, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		channel:   channel,
		chatID:    chatID,
		baseURL:   strings.TrimRight(baseURL, "/"),
		linkLabel: DefaultLinkLabel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result describes a completed publish.
type Result struct {
	PostID     string
	ArticleURL string
	CreatedAt  time.Time
	WithPhoto  bool
}

// Publish stores the post, then sends one channel message. A send failure
// is returned as *SendError and is not retried; the stored post remains.
func (p *Publisher) Publish(ctx context.Context, a *transform.Article, entry feed.Entry) (Result, error) {
	image := feed.ExtractImage(entry)

	id, createdAt, err := p.store.Insert(ctx, storage.Post{
		Title:        a.Title,
		Summary:      a.Summary,
		Content:      a.Content,
		Category:     a.Category,
		ImageURL:     image,
		OriginalLink: entry.Link,
		Embedding:    a.TitleEmbedding,
	})
	if err != nil {
		return Result{}, fmt.Errorf("store post: %w", err)
	}

	res := Result{
		PostID:     id,
		ArticleURL: ArticleURL(p.baseURL, id),
		CreatedAt:  createdAt,
		WithPhoto:  image != "",
	}
	log := logger.With("post_id", id, "link", entry.Link)
	log.Info("post stored", "url", res.ArticleURL)

	if image != "" {
		err = p.channel.SendPhoto(ctx, p.chatID, image, ComposeMessage(a, res.ArticleURL, p.linkLabel, captionLimit))
	} else {
		err = p.channel.SendMessage(ctx, p.chatID, ComposeMessage(a, res.ArticleURL, p.linkLabel, messageLimit))
	}
	if err != nil {
		log.Error("channel send failed, post left unannounced", "error", err)
		return res, &SendError{PostID: id, Err: err}
	}

	log.Info("post announced", "photo", res.WithPhoto)
	return res, nil
}

// ArticleURL is the public page of a stored post.
func ArticleURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/post.html?id=" + id
}

// ComposeMessage renders the HTML channel message: the short post, a link to
// the article and the hashtags. The post text is shortened so the whole
// message fits in limit characters.
func ComposeMessage(a *transform.Article, articleURL, linkLabel string, limit int) string {
	tail := fmt.Sprintf("\n\n<a href=\"%s\">%s</a>", html.EscapeString(articleURL), html.EscapeString(linkLabel))
	if tags := strings.TrimSpace(a.Hashtags); tags != "" {
		tail += "\n\n" + html.EscapeString(tags)
	}

	body := strings.TrimSpace(a.TelegramPost)
	budget := limit - utf8.RuneCountInString(tail)
	escaped := html.EscapeString(body)
	if utf8.RuneCountInString(escaped) <= budget {
		return escaped + tail
	}

	runes := []rune(body)
	cut := len(runes)
	for cut > 0 {
		over := utf8.RuneCountInString(html.EscapeString(string(runes[:cut])+"…")) - budget
		if over <= 0 {
			break
		}
		cut -= over
	}
	if cut < 0 {
		cut = 0
	}
	return html.EscapeString(strings.TrimSpace(string(runes[:cut]))+"…") + tail
}
