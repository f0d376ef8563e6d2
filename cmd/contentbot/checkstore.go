package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/contentbot/internal/config"
	"github.com/deusflow/contentbot/internal/storage"
)

func checkStoreCmd() *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "check-store",
		Short: "Verify the database connection and print the latest posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStore(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return checkStore(ctx, cmd.OutOrStdout(), cfg.DatabaseURL, recent)
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "n", 5, "number of recent posts to list")
	return cmd
}

func checkStore(ctx context.Context, w io.Writer, dbURL string, recent int) error {
	fmt.Fprintf(w, "🔌 Connecting to %s\n", maskPassword(dbURL))

	store, err := storage.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("❌ connect: %w", err)
	}
	defer store.Close()
	fmt.Fprintln(w, "✅ Connected, schema is in place")

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	fmt.Fprintf(w, "📊 Posts stored: %d\n", total)

	posts, err := store.Recent(ctx, recent)
	if err != nil {
		return fmt.Errorf("recent posts: %w", err)
	}
	fmt.Fprintf(w, "📰 Recent posts (last %d):\n", recent)
	if len(posts) == 0 {
		fmt.Fprintln(w, "  (no posts yet)")
	}
	for i, p := range posts {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p.Title)
		fmt.Fprintf(w, "     Category: %s | Created: %s | Embedding: %d dims\n",
			p.Category, p.CreatedAt.Format("2006-01-02 15:04:05"), len(p.Embedding))
	}
	return nil
}

// maskPassword hides the password of a URL-style connection string.
func maskPassword(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	return u.Redacted()
}
