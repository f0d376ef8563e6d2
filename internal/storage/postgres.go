package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/deusflow/contentbot/internal/logger"
)

// Postgres keeps posts in PostgreSQL with the title embedding in a pgvector column.
type Postgres struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewPostgres connects, pings and makes sure the schema exists.
func NewPostgres(ctx context.Context, connectionString string) (*Postgres, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresWithDB(db)
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("✅ PostgreSQL store connected")
	return store, nil
}

// NewPostgresWithDB wraps an existing handle without touching the schema.
func NewPostgresWithDB(db *sql.DB) *Postgres {
	return &Postgres{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *Postgres) initSchema(ctx context.Context) error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		content TEXT NOT NULL,
		category VARCHAR(100) NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		original_link TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		embedding vector
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

	CREATE TABLE IF NOT EXISTS portfolio (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("database schema initialized")
	return nil
}

// Insert writes the post; id and created_at come from the database.
func (p *Postgres) Insert(ctx context.Context, post Post) (string, time.Time, error) {
	var embedding any
	if len(post.Embedding) > 0 {
		embedding = pgvector.NewVector(post.Embedding)
	}

	query, args, err := p.sb.Insert("posts").
		Columns("title", "summary", "content", "category", "image_url", "original_link", "embedding").
		Values(post.Title, post.Summary, post.Content, post.Category, post.ImageURL, post.OriginalLink, embedding).
		Suffix("RETURNING id::text, created_at").
		ToSql()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build insert: %w", err)
	}

	var id string
	var createdAt time.Time
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return "", time.Time{}, fmt.Errorf("insert post: %w", err)
	}
	return id, createdAt, nil
}

func (p *Postgres) ExistsByLink(ctx context.Context, link string) (bool, error) {
	query, args, err := p.sb.Select("1").From("posts").Where(sq.Eq{"original_link": link}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	return true, nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 10
	}
	return p.queryPosts(ctx, p.sb.Select(postColumns...).From("posts").OrderBy("created_at DESC").Limit(uint64(limit)))
}

func (p *Postgres) AllPosts(ctx context.Context) ([]Post, error) {
	return p.queryPosts(ctx, p.sb.Select(postColumns...).From("posts").OrderBy("created_at DESC"))
}

func (p *Postgres) queryPosts(ctx context.Context, b sq.SelectBuilder) ([]Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var post Post
		var embedding *pgvector.Vector
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Summary,
			&post.Content,
			&post.Category,
			&post.ImageURL,
			&post.OriginalLink,
			&post.CreatedAt,
			&embedding,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if embedding != nil {
			post.Embedding = embedding.Slice()
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (p *Postgres) AllPortfolio(ctx context.Context) ([]PortfolioItem, error) {
	query, args, err := p.sb.Select("id", "title", "created_at").From("portfolio").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build portfolio query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	defer rows.Close()

	var items []PortfolioItem
	for rows.Next() {
		var item PortfolioItem
		if err := rows.Scan(&item.ID, &item.Title, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio: %w", err)
	}
	return items, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
