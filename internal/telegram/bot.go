package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/contentbot/internal/logger"
)

const (
	pollTimeout = 30 * time.Second
	errorPause  = 3 * time.Second

	msgStart      = "Hello! I collect AI news and publish it to the channel automatically."
	msgStartAdmin = msgStart + "\n\nCommands:\n/fetch - check the feeds and publish the newest story now"
	msgRejected   = "Sorry, this command is only available to the administrator."
	msgAccepted   = "Checking the feeds now. I will report the result when the run finishes."
	msgQueued     = "A run is already in progress. Yours is queued and I will report when it finishes."
)

// Trigger starts a detached pipeline run and returns at once. report is
// called with one terminal status line as the last step of that run.
type Trigger interface {
	Trigger(ctx context.Context, report func(status string))
	Busy() bool
}

// Sender is the part of Client the bot replies through.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Bot answers /start and lets the single admin start a run with /fetch.
type Bot struct {
	updates updateSource
	sender  Sender
	trigger Trigger
	adminID int64
}

func NewBot(client *Client, trigger Trigger, adminID int64) *Bot {
	return &Bot{updates: client, sender: client, trigger: trigger, adminID: adminID}
}

// Run polls until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	logger.Info("telegram bot polling started")
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.updates.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorPause):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message != nil {
				b.Handle(ctx, u.Message)
			}
		}
	}
}

// Handle dispatches a single incoming message.
func (b *Bot) Handle(ctx context.Context, m *Message) {
	chatID := strconv.FormatInt(m.Chat.ID, 10)

	switch command(m.Text) {
	case "/start":
		if b.isAdmin(m) {
			b.reply(ctx, chatID, msgStartAdmin)
			return
		}
		b.reply(ctx, chatID, msgStart)
	case "/fetch":
		if !b.isAdmin(m) {
			b.reply(ctx, chatID, msgRejected)
			return
		}
		if b.trigger.Busy() {
			b.reply(ctx, chatID, msgQueued)
		} else {
			b.reply(ctx, chatID, msgAccepted)
		}

		b.trigger.Trigger(context.WithoutCancel(ctx), func(status string) {
			// the run may outlive the polling loop
			b.reply(context.Background(), chatID, status)
		})
	}
}

func (b *Bot) isAdmin(m *Message) bool {
	return m.From != nil && m.From.ID == b.adminID
}

func (b *Bot) reply(ctx context.Context, chatID, text string) {
	if err := b.sender.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn("failed to reply", "chat_id", chatID, "error", err)
	}
}

// command returns "/name" for "/name@bot args", or "" for plain text.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}
