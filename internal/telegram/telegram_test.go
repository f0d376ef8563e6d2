package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method  string
	payload map[string]any
}

func newAPI(t *testing.T, handler func(method string, payload map[string]any) string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		method := r.URL.Path[len("/botTOKEN/"):]

		mu.Lock()
		*calls = append(*calls, recorded{method: method, payload: payload})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, handler(method, payload))
	}))
	t.Cleanup(server.Close)
	return server, calls
}

func TestSendMessage(t *testing.T) {
	server, calls := newAPI(t, func(string, map[string]any) string {
		return `{"ok":true,"result":{"message_id":1}}`
	})

	c := NewClient("TOKEN", WithBaseURL(server.URL))
	require.NoError(t, c.SendMessage(context.Background(), "@channel", "<b>hi</b>"))

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "sendMessage", got.method)
	assert.Equal(t, "@channel", got.payload["chat_id"])
	assert.Equal(t, "<b>hi</b>", got.payload["text"])
	assert.Equal(t, "HTML", got.payload["parse_mode"])
}

func TestSendPhoto(t *testing.T) {
	server, calls := newAPI(t, func(string, map[string]any) string {
		return `{"ok":true,"result":{}}`
	})

	c := NewClient("TOKEN", WithBaseURL(server.URL+"/"))
	require.NoError(t, c.SendPhoto(context.Background(), "@channel", "https://img/x.jpg", "caption"))

	got := (*calls)[0]
	assert.Equal(t, "sendPhoto", got.method)
	assert.Equal(t, "https://img/x.jpg", got.payload["photo"])
	assert.Equal(t, "caption", got.payload["caption"])
}

func TestSendErrorIsNotRetried(t *testing.T) {
	server, calls := newAPI(t, func(string, map[string]any) string {
		return `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	})

	err := NewClient("TOKEN", WithBaseURL(server.URL)).SendMessage(context.Background(), "@nope", "x")
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Len(t, *calls, 1)
}

func TestGetUpdates(t *testing.T) {
	server, calls := newAPI(t, func(string, map[string]any) string {
		return `{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"from":{"id":42},"chat":{"id":42},"text":"/fetch"}}]}`
	})

	updates, err := NewClient("TOKEN", WithBaseURL(server.URL)).GetUpdates(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(7), updates[0].UpdateID)
	assert.Equal(t, int64(42), updates[0].Message.From.ID)
	assert.Equal(t, "/fetch", updates[0].Message.Text)
	assert.InDelta(t, 5, (*calls)[0].payload["offset"], 0)
	assert.InDelta(t, 30, (*calls)[0].payload["timeout"], 0)
}
