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
	"evol-ledger-backend/internal/features/admin/models"
	"evol-ledger-backend/internal/features/admin/service"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	ledgermemory "evol-ledger-backend/internal/features/ledger/repository/memory"
	poolrepo "evol-ledger-backend/internal/features/pool/repository"
	poolmemory "evol-ledger-backend/internal/features/pool/repository/memory"
)

const adminID = 1001

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, caller int64) (*gin.Engine, poolrepo.Allocator) {
	t.Helper()
	ctx := context.Background()
	store := ledgermemory.NewStore()
	_, err := store.Update(ctx, "5", func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
		r.Points = 750
		r.WalletAddress = "gxr1qpzry9x8"
		return nil
	})
	require.NoError(t, err)

	pools := poolmemory.NewAllocator(map[int]int64{1: 1000, 2: 1000})
	ok, err := pools.TryReserve(ctx, 2, 250)
	require.NoError(t, err)
	require.True(t, ok)

	isAdmin := func(id int64) bool { return id == adminID }

	r := gin.New()
	r.Use(middleware.Errors())
	r.Use(func(c *gin.Context) { middleware.SetUser(c, initdata.User{ID: caller}) })
	NewAdminHandler(service.NewAdminService(store, pools), isAdmin).RegisterRoutes(r.Group("/api/v1"))
	return r, pools
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r, _ := newTestRouter(t, 7)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/admin/stats").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/admin/export").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/admin/pools/1/reset").Code)
}

func TestStatsAndExport(t *testing.T) {
	r, _ := newTestRouter(t, adminID)

	w := serve(r, http.MethodGet, "/api/v1/admin/stats")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats models.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, int64(750), stats.TotalDistributed)
	assert.Equal(t, int64(250), stats.TotalPoolUsed)

	w = serve(r, http.MethodGet, "/api/v1/admin/export")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []models.ExportRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "gxr1qpzry9x8", rows[0].Wallet)
}

func TestResetPool(t *testing.T) {
	r, pools := newTestRouter(t, adminID)

	w := serve(r, http.MethodPost, "/api/v1/admin/pools/2/reset")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	states, err := pools.State(context.Background())
	require.NoError(t, err)
	for _, st := range states {
		assert.Zero(t, st.Used)
	}

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/v1/admin/pools/6/reset").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/v1/admin/pools/x/reset").Code)
}
