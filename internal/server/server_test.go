package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/contentbot/internal/metrics"
)

func setupRouter() (*gin.Engine, *metrics.Metrics) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return NewRouter(m, reg), m
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAlive(t *testing.T) {
	router, _ := setupRouter()
	resp := get(router, "/")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Evolvo AI Content Bot is alive!", resp.Body.String())
}

func TestHealth(t *testing.T) {
	router, m := setupRouter()

	resp := get(router, "/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	m.RecordRun("scheduled", "transform_failed", time.Second, "model returned garbage")
	resp = get(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "model returned garbage", body["last_error"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, m := setupRouter()
	m.IncrementPublished()

	resp := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "contentbot_posts_published_total 1")

	resp = get(router, "/stats")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"posts_published":1`)
}
