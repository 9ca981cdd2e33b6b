package core

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupRoutesGuardsAdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewModule(memory.NewMemoryStore(), &events.Recorder{}, "")

	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	r := gin.New()
	m.SetupRoutes(r, deny)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodGet, path: "/api/player", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/dashboard/player", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/match", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/player/missing", want: http.StatusNotFound},
		{method: http.MethodPost, path: "/api/player", body: `{"fname":"Ann","handed":"left","initial_balance_usd_cents":5}`, want: http.StatusCreated},
		{method: http.MethodPost, path: "/api/player/any", body: `{"lname":"X"}`, want: http.StatusUnauthorized},
		{method: http.MethodDelete, path: "/api/player/any", want: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/api/deposit/player/any?amount_usd_cents=5", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		if tt.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRunReconciliationNow(t *testing.T) {
	m := NewModule(memory.NewMemoryStore(), nil, "")
	m.RunReconciliationNow()
}
