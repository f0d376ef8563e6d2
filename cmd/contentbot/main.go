package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/contentbot/internal/app"
	"github.com/deusflow/contentbot/internal/config"
	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/sitemap"
	"github.com/deusflow/contentbot/internal/storage"
)

func main() {
	config.LoadEnvFiles()
	logger.Init()

	root := &cobra.Command{
		Use:          "contentbot",
		Short:        "AI news content bot",
		Long:         "Reads AI news feeds, rewrites the newest story with a language model, stores it for the website and announces it on Telegram.",
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		runCmd(),
		sitemapCmd(),
		checkStoreCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: scheduler, Telegram commands and the HTTP liveness server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(ctx)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.RunOnce(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), app.StatusText(res, err))
			return err
		},
	}
}

func sitemapCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write sitemap.xml for the website from stored posts and portfolio items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStore(); err != nil {
				return err
			}
			if output == "" {
				output = cfg.SitemapOutput
			}
			ctx, stop := signalContext()
			defer stop()

			store, err := storage.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			n, err := sitemap.WriteFile(ctx, store, cfg.WebsiteBaseURL, output, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s written with %d URLs\n", output, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default $SITEMAP_OUTPUT or sitemap.xml)")
	return cmd
}
