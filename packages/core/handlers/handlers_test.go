package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tennis-ledger-api/packages/core/apperrors"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/services"
	"tennis-ledger-api/packages/core/store/memory"
	"tennis-ledger-api/packages/core/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.NewMemoryStore()
	locks := utils.NewKeyedMutex()
	publisher := &events.Recorder{}
	ledger := services.NewLedgerService(st, locks, publisher)
	matches := services.NewMatchService(st, ledger, locks, publisher)
	stats := services.NewStatsService(st)

	playerHandler := NewPlayerHandler(ledger, stats)
	matchHandler := NewMatchHandler(matches)
	statsHandler := NewStatsHandler(stats)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/player", playerHandler.GetPlayers)
	api.POST("/player", playerHandler.CreatePlayer)
	api.GET("/player/:pid", playerHandler.GetPlayer)
	api.POST("/player/:pid", playerHandler.UpdatePlayer)
	api.DELETE("/player/:pid", playerHandler.DeletePlayer)
	api.POST("/deposit/player/:pid", playerHandler.Deposit)
	api.GET("/dashboard/player", statsHandler.GetDashboard)
	api.GET("/match", matchHandler.GetMatches)
	api.POST("/match", matchHandler.CreateMatch)
	api.GET("/match/:mid", matchHandler.GetMatch)
	api.POST("/match/:mid/award/:pid", matchHandler.AwardPoints)
	api.POST("/match/:mid/end", matchHandler.EndMatch)
	api.POST("/match/:mid/disqualify/:pid", matchHandler.Disqualify)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createPlayer(t *testing.T, r *gin.Engine, fname string, balance int64) models.PlayerView {
	t.Helper()
	body := fmt.Sprintf(`{"fname":%q,"lname":"Test","handed":"right","initial_balance_usd_cents":%d}`, fname, balance)
	w := doJSON(t, r, http.MethodPost, "/api/player", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.PlayerView](t, w)
}

func createMatch(t *testing.T, r *gin.Engine, p1, p2 string, fee, prize int64) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"p1_id":%q,"p2_id":%q,"entry_fee_usd_cents":%d,"prize_usd_cents":%d}`, p1, p2, fee, prize)
	return doJSON(t, r, http.MethodPost, "/api/match", body)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: apperrors.Validation("bad"), want: http.StatusBadRequest},
		{err: apperrors.NotFound("gone"), want: http.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", apperrors.Conflict("busy")), want: http.StatusConflict},
		{err: apperrors.InsufficientFunds("poor"), want: http.StatusPaymentRequired},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestPlayerEndpoints(t *testing.T) {
	r := newTestRouter(t)

	alice := createPlayer(t, r, "Alice", 1000)
	assert.Equal(t, "Alice Test", alice.Name)
	assert.Equal(t, "right", alice.Handed)
	assert.True(t, alice.IsActive)
	assert.Equal(t, int64(1000), alice.BalanceCents)

	w := doJSON(t, r, http.MethodGet, "/api/player/"+alice.PID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.PID, decode[models.PlayerView](t, w).PID)

	w = doJSON(t, r, http.MethodGet, "/api/player/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/player", `{"fname":"R2D2","handed":"right","initial_balance_usd_cents":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/player", `{"fname":"Bob","handed":"right"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/player/"+alice.PID, `{"lname":"Smith","active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.PlayerView](t, w)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.False(t, updated.IsActive)

	createPlayer(t, r, "Bob", 500)

	w = doJSON(t, r, http.MethodGet, "/api/player?is_active=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	active := decode[[]models.PlayerView](t, w)
	require.Len(t, active, 1)
	assert.Equal(t, "Bob Test", active[0].Name)

	w = doJSON(t, r, http.MethodGet, "/api/player", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.PlayerView](t, w), 2)

	w = doJSON(t, r, http.MethodGet, "/api/player?q="+url.QueryEscape("smi;lname"), "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.PlayerView](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, alice.PID, found[0].PID)

	w = doJSON(t, r, http.MethodGet, "/api/player?is_active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePlayerFromForm(t *testing.T) {
	r := newTestRouter(t)

	form := url.Values{}
	form.Set("fname", "Carlos")
	form.Set("lname", "Alcaraz")
	form.Set("handed", "Right")
	form.Set("initial_balance_usd_cents", "250")

	req := httptest.NewRequest(http.MethodPost, "/api/player", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[models.PlayerView](t, w)
	assert.Equal(t, "Carlos Alcaraz", view.Name)
	assert.Equal(t, int64(250), view.BalanceCents)
}

func TestDepositAndDashboard(t *testing.T) {
	r := newTestRouter(t)
	alice := createPlayer(t, r, "Alice", 100)
	createPlayer(t, r, "Bob", 200)

	w := doJSON(t, r, http.MethodPost, "/api/deposit/player/"+alice.PID+"?amount_usd_cents=50", "")
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[models.DepositResult](t, w)
	assert.Equal(t, int64(100), result.OldBalanceCents)
	assert.Equal(t, int64(150), result.NewBalanceCents)

	for _, amount := range []string{"0", "-5", "abc", ""} {
		w = doJSON(t, r, http.MethodPost, "/api/deposit/player/"+alice.PID+"?amount_usd_cents="+amount, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, amount)
	}
	w = doJSON(t, r, http.MethodPost, "/api/deposit/player/missing?amount_usd_cents=5", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/player", "")
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Equal(t, float64(2), dashboard["total_num"])
	assert.Equal(t, float64(2), dashboard["num_active"])
	assert.Equal(t, float64(0), dashboard["num_inactive"])
	assert.Equal(t, "175", dashboard["avg_balance"])
}

func TestMatchLifecycleEndpoints(t *testing.T) {
	r := newTestRouter(t)
	alice := createPlayer(t, r, "Alice", 1000)
	bob := createPlayer(t, r, "Bob", 1000)

	w := createMatch(t, r, alice.PID, bob.PID, 100, 150)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	match := decode[models.MatchView](t, w)
	assert.True(t, match.IsActive)
	assert.Equal(t, "Alice Test", match.P1Name)
	assert.Nil(t, match.WinnerPID)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/award/"+alice.PID+"?points=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/award/"+bob.PID+"?points=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), decode[models.MatchView](t, w).P2Points)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/end", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/award/"+alice.PID+"?points=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/award/"+alice.PID+"?points=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/end", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ended := decode[models.MatchView](t, w)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.WinnerPID)
	assert.Equal(t, alice.PID, *ended.WinnerPID)
	assert.NotNil(t, ended.EndedAt)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/disqualify/"+bob.PID, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/player/"+alice.PID, "")
	require.Equal(t, http.StatusOK, w.Code)
	aliceView := decode[models.PlayerView](t, w)
	assert.Equal(t, int64(1050), aliceView.BalanceCents)
	assert.Equal(t, 1, aliceView.NumWon)
	assert.Equal(t, int64(150), aliceView.TotalPrizeCents)

	w = doJSON(t, r, http.MethodGet, "/api/match", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.MatchView](t, w))

	w = doJSON(t, r, http.MethodGet, "/api/match?is_active=*", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.MatchView](t, w), 1)

	w = doJSON(t, r, http.MethodDelete, "/api/player/"+alice.PID, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateMatchErrorStatuses(t *testing.T) {
	r := newTestRouter(t)
	alice := createPlayer(t, r, "Alice", 1000)
	bob := createPlayer(t, r, "Bob", 50)
	carol := createPlayer(t, r, "Carol", 1000)

	w := createMatch(t, r, alice.PID, bob.PID, 100, 150)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = createMatch(t, r, alice.PID, "missing", 100, 150)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = createMatch(t, r, alice.PID, alice.PID, 100, 150)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/match", `{"p1_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = createMatch(t, r, alice.PID, carol.PID, 100, 150)
	require.Equal(t, http.StatusCreated, w.Code)
	match := decode[models.MatchView](t, w)

	w = createMatch(t, r, bob.PID, carol.PID, 10, 10)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/disqualify/"+bob.PID, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/match/"+match.MID+"/disqualify/"+carol.PID, "")
	require.Equal(t, http.StatusOK, w.Code)
	dq := decode[models.MatchView](t, w)
	assert.True(t, dq.IsDQ)
	require.NotNil(t, dq.WinnerPID)
	assert.Equal(t, alice.PID, *dq.WinnerPID)

	w = doJSON(t, r, http.MethodGet, "/api/match/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
