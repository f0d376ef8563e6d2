// Package server exposes liveness, health and metrics over HTTP for the
// hosting platform.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deusflow/contentbot/internal/logger"
	"github.com/deusflow/contentbot/internal/metrics"
)

const AliveMessage = "Evolvo AI Content Bot is alive!"

// NewRouter builds the HTTP routes. gatherer backs /metrics.
func NewRouter(m *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, AliveMessage)
	})

	router.GET("/health", func(c *gin.Context) {
		stats := m.GetStats()
		status, code := "ok", http.StatusOK
		if healthy, _ := stats["is_healthy"].(bool); !healthy {
			status, code = "error", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":       status,
			"last_run":     stats["last_run_time"],
			"last_outcome": stats["last_outcome"],
			"last_error":   stats["last_error"],
		})
	})

	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, m.GetStats())
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}

// Serve runs the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
