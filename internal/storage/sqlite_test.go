package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteInsertAndExists(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	exists, err := s.ExistsByLink(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, exists)

	id, createdAt, err := s.Insert(ctx, Post{
		Title:        "Sarlavha",
		Summary:      "Qisqa",
		Content:      "Matn",
		Category:     "AI",
		OriginalLink: "https://example.com/a",
		Embedding:    []float32{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.False(t, createdAt.IsZero())

	exists, err = s.ExistsByLink(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteRejectsDuplicateLink(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, _, err := s.Insert(ctx, Post{Title: "a", OriginalLink: "https://example.com/dup"})
	require.NoError(t, err)
	_, _, err = s.Insert(ctx, Post{Title: "b", OriginalLink: "https://example.com/dup"})
	require.Error(t, err)
}

func TestSQLiteRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		_, _, err := s.Insert(ctx, Post{
			Title:        string(rune('a' + i)),
			OriginalLink: "https://example.com/" + string(rune('a'+i)),
			Embedding:    []float32{float32(i), 1},
		})
		require.NoError(t, err)
	}
	s.now = func() time.Time { return base.Add(-time.Hour) }
	_, _, err := s.Insert(ctx, Post{Title: "no-embedding", OriginalLink: "https://example.com/z"})
	require.NoError(t, err)

	recent, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Title)
	assert.Equal(t, []float32{3, 1}, recent[0].Embedding)
	assert.Equal(t, "c", recent[1].Title)

	all, err := s.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	var found bool
	for _, p := range all {
		if p.Title == "no-embedding" {
			found = true
			assert.Nil(t, p.Embedding)
		}
	}
	assert.True(t, found)
}

func TestSQLitePortfolio(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.AddPortfolio(ctx, "Landing page", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	items, err := s.AllPortfolio(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Landing page", items[0].Title)
	assert.Equal(t, 2026, items[0].CreatedAt.Year())
}

func TestOpenDispatch(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLite)
	assert.True(t, ok)

	_, err = Open(context.Background(), "")
	require.Error(t, err)
}

func TestUnavailableStore(t *testing.T) {
	ctx := context.Background()
	s := Unavailable(assert.AnError)

	_, err := s.ExistsByLink(ctx, "x")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Recent(ctx, 1)
	require.ErrorIs(t, err, ErrUnavailable)
	_, _, err = s.Insert(ctx, Post{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.NoError(t, s.Close())
}
