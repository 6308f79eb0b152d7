package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evol-ledger-backend/internal/common/config"
	"evol-ledger-backend/internal/features/tier"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	t.Setenv("LEDGER_BACKEND", backend)
	t.Setenv("BOT_TOKEN", "test-token")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestBuildMemorySeedsEveryTier(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	defer c.Close()

	states, err := c.Pools.State(context.Background())
	require.NoError(t, err)
	assert.Len(t, states, tier.MaxLevel)
}

func TestBuildRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.BackendRedis)
	cfg.Redis.Host = mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Redis.Port = port

	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, mr.Exists("pool:1"))
	assert.Equal(t, "0", mr.HGet("pool:7", "used"))

	stream, err := c.StreamClient(context.Background())
	require.NoError(t, err)
	assert.Same(t, c.Redis, stream)
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Ledger.Backend = "sqlite"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProbes(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	r := NewRouter(c)

	for _, path := range []string{"/health", "/live", "/ready"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledger_pool_used")
}

func TestAPIRequiresInitData(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	r := NewRouter(c)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/users/me/claim", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	r := NewRouter(c)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}
