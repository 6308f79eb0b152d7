package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"evol-ledger-backend/internal/common/middleware"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	ledgermemory "evol-ledger-backend/internal/features/ledger/repository/memory"
	"evol-ledger-backend/internal/features/ranking/models"
	"evol-ledger-backend/internal/features/ranking/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, caller int64, points map[string]int64) *gin.Engine {
	t.Helper()
	store := ledgermemory.NewStore()
	for id, p := range points {
		p := p
		_, err := store.Update(context.Background(), id, func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
			r.Points = p
			return nil
		})
		require.NoError(t, err)
	}

	r := gin.New()
	r.Use(middleware.Errors())
	r.Use(func(c *gin.Context) { middleware.SetUser(c, initdata.User{ID: caller}) })
	NewRankingHandler(service.NewRankingService(store)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetRank(t *testing.T) {
	r := newTestRouter(t, 2, map[string]int64{"1": 900, "2": 400, "3": 10})

	w := get(r, "/api/v1/users/me/rank")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pos models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pos))
	assert.Equal(t, 2, pos.Rank)
	assert.Equal(t, 3, pos.Total)

	r = newTestRouter(t, 99, map[string]int64{"1": 900})
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/users/me/rank").Code)
}

func TestGetLeaderboard(t *testing.T) {
	r := newTestRouter(t, 1, map[string]int64{"1": 10, "2": 20, "3": 30, "4": 5000})

	w := get(r, "/api/v1/leaderboard?tier=1&limit=2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board models.Leaderboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	assert.Equal(t, 1, board.TierLevel)
	assert.Equal(t, 3, board.TotalInTier)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "3", board.Entries[0].UserID)
	assert.Equal(t, "2", board.Entries[1].UserID)

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/leaderboard").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/leaderboard?tier=1&limit=-3").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/leaderboard?tier=9").Code)
}
