package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/deusflow/contentbot/internal/logger"
)

// SQLite is a single-file backend for local runs and tests. Embeddings are
// stored as JSON arrays and created_at as unix milliseconds.
type SQLite struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	original_link TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	embedding TEXT
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS portfolio (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("✅ SQLite store opened", "dsn", dsn)
	return &SQLite{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}, nil
}

func (s *SQLite) Insert(ctx context.Context, post Post) (string, time.Time, error) {
	id := uuid.NewString()
	createdAt := s.now().UTC().Truncate(time.Millisecond)

	var embedding any
	if len(post.Embedding) > 0 {
		raw, err := json.Marshal(post.Embedding)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("encode embedding: %w", err)
		}
		embedding = string(raw)
	}

	query, args, err := s.sb.Insert("posts").
		Columns(postColumns...).
		Values(id, post.Title, post.Summary, post.Content, post.Category, post.ImageURL, post.OriginalLink, createdAt.UnixMilli(), embedding).
		ToSql()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", time.Time{}, fmt.Errorf("insert post: %w", err)
	}
	return id, createdAt, nil
}

func (s *SQLite) ExistsByLink(ctx context.Context, link string) (bool, error) {
	query, args, err := s.sb.Select("1").From("posts").Where(sq.Eq{"original_link": link}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	return true, nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryPosts(ctx, s.sb.Select(postColumns...).From("posts").OrderBy("created_at DESC", "rowid DESC").Limit(uint64(limit)))
}

func (s *SQLite) AllPosts(ctx context.Context) ([]Post, error) {
	return s.queryPosts(ctx, s.sb.Select(postColumns...).From("posts").OrderBy("created_at DESC", "rowid DESC"))
}

func (s *SQLite) queryPosts(ctx context.Context, b sq.SelectBuilder) ([]Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var post Post
		var createdAt int64
		var embedding sql.NullString
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Summary,
			&post.Content,
			&post.Category,
			&post.ImageURL,
			&post.OriginalLink,
			&createdAt,
			&embedding,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		post.CreatedAt = time.UnixMilli(createdAt).UTC()
		if embedding.Valid && embedding.String != "" {
			if err := json.Unmarshal([]byte(embedding.String), &post.Embedding); err != nil {
				return nil, fmt.Errorf("decode embedding of %s: %w", post.ID, err)
			}
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (s *SQLite) AllPortfolio(ctx context.Context) ([]PortfolioItem, error) {
	query, args, err := s.sb.Select("id", "title", "created_at").From("portfolio").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build portfolio query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	defer rows.Close()

	var items []PortfolioItem
	for rows.Next() {
		var item PortfolioItem
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan portfolio item: %w", err)
		}
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio: %w", err)
	}
	return items, nil
}

// AddPortfolio inserts a portfolio entry. The website normally owns this collection.
func (s *SQLite) AddPortfolio(ctx context.Context, title string, createdAt time.Time) (string, error) {
	id := uuid.NewString()
	query, args, err := s.sb.Insert("portfolio").Columns("id", "title", "created_at").
		Values(id, title, createdAt.UTC().UnixMilli()).ToSql()
	if err != nil {
		return "", fmt.Errorf("build portfolio insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert portfolio item: %w", err)
	}
	return id, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
