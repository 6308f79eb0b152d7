package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"evol-ledger-backend/internal/common/config"
	"evol-ledger-backend/internal/common/middleware"
	"evol-ledger-backend/internal/common/validation"
	ledgermemory "evol-ledger-backend/internal/features/ledger/repository/memory"
	poolmemory "evol-ledger-backend/internal/features/pool/repository/memory"
	"evol-ledger-backend/internal/features/reward/models"
	"evol-ledger-backend/internal/features/reward/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(userID int64) *gin.Engine {
	store := ledgermemory.NewStore()
	pools := poolmemory.NewAllocator(config.DefaultCatalog().Capacities())
	svc := service.NewRewardService(store, pools, nil, service.Options{
		ClaimReward:    250,
		ClaimCooldown:  6 * time.Hour,
		ReferralReward: 50,
		Catalog:        config.DefaultCatalog(),
		Wallet:         validation.DefaultWalletRules(),
	})

	r := gin.New()
	r.Use(middleware.Errors())
	r.Use(func(c *gin.Context) {
		if id, err := c.Cookie("uid"); err == nil && id != "" {
			middleware.SetUser(c, initdata.User{ID: userID})
		}
	})
	NewRewardHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.AddCookie(&http.Cookie{Name: "uid", Value: "1"})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestClaimThenCooldown(t *testing.T) {
	r := newTestRouter(42)

	w := do(r, http.MethodPost, "/api/v1/users/me/claim", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.ClaimResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "42", res.UserID)
	assert.Equal(t, int64(250), res.Points)

	w = do(r, http.MethodPost, "/api/v1/users/me/claim", nil, true)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "COOLDOWN_ACTIVE", errorCode(t, w))
}

func TestUnauthenticated(t *testing.T) {
	r := newTestRouter(42)
	w := do(r, http.MethodPost, "/api/v1/users/me/claim", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileOfNewUser(t *testing.T) {
	r := newTestRouter(42)
	w := do(r, http.MethodGet, "/api/v1/users/me", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p models.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, int64(0), p.Points)
	assert.True(t, p.CanClaim)
	assert.Equal(t, "REF42", p.ReferralCode)
}

func TestReferralEndpoints(t *testing.T) {
	r := newTestRouter(42)

	w := do(r, http.MethodGet, "/api/v1/users/me/referral", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var code ReferralCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &code))
	assert.Equal(t, "REF42", code.Code)

	w = do(r, http.MethodPost, "/api/v1/users/me/referral", ReferralRequest{Code: "REF42"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SELF_REFERRAL", errorCode(t, w))

	w = do(r, http.MethodPost, "/api/v1/users/me/referral", ReferralRequest{Code: "REF7"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.ReferralResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(50), res.Points)
	assert.Equal(t, int64(50), res.ReferrerPoints)

	w = do(r, http.MethodPost, "/api/v1/users/me/referral", ReferralRequest{Code: "REF8"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/users/me/referral", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectWallet(t *testing.T) {
	r := newTestRouter(42)

	w := do(r, http.MethodPut, "/api/v1/users/me/wallet", WalletRequest{Address: "0xdeadbeef"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_WALLET_FORMAT", errorCode(t, w))

	w = do(r, http.MethodPut, "/api/v1/users/me/wallet", WalletRequest{Address: "gxr1qpzry9x8gf2tvdw0"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.WalletResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "gxr1qpzry9x8gf2tvdw0", res.WalletAddress)
}

func TestTaskEndpoints(t *testing.T) {
	r := newTestRouter(42)

	w := do(r, http.MethodGet, "/api/v1/users/me/tasks", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.TaskView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.NotEmpty(t, tasks)
	first := tasks[0]
	assert.False(t, first.Completed)

	path := "/api/v1/users/me/tasks/" + first.Category + "/0/complete"
	w = do(r, http.MethodPost, path, nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, path, nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/users/me/tasks/"+first.Category+"/x/complete", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/users/me/tasks/unknown/0/complete", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
