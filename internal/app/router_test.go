package app

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/config"
)

func corsConfigFor(origins []string, unsafeAll bool) *config.Config {
	return &config.Config{Server: config.ServerConfig{
		AllowedOrigins:        origins,
		AllowCredentials:      true,
		UnsafeAllowAllOrigins: unsafeAll,
	}}
}

func TestBuildCORSConfig_Origins(t *testing.T) {
	tests := []struct {
		name            string
		origins         []string
		unsafeAll       bool
		wantAllowAll    bool
		wantCredentials bool
		wantOrigins     []string
	}{
		{
			name:            "empty falls back to local dashboards",
			wantCredentials: true,
			wantOrigins:     defaultAllowedOrigins,
		},
		{
			name:            "wildcard and blanks dropped",
			origins:         []string{"*", " ", " https://finance.example.com "},
			wantCredentials: true,
			wantOrigins:     []string{"https://finance.example.com"},
		},
		{
			name:            "only wildcard falls back to defaults",
			origins:         []string{"*"},
			wantCredentials: true,
			wantOrigins:     defaultAllowedOrigins,
		},
		{
			name:         "unsafe allow all disables credentials",
			origins:      []string{"*"},
			unsafeAll:    true,
			wantAllowAll: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := buildCORSConfig(corsConfigFor(tc.origins, tc.unsafeAll))
			assert.Equal(t, tc.wantAllowAll, got.AllowAllOrigins)
			assert.Equal(t, tc.wantCredentials, got.AllowCredentials)
			assert.Equal(t, tc.wantOrigins, got.AllowOrigins)
		})
	}
}

// Every method the API routes use must pass a browser preflight.
func TestBuildCORSConfig_AllowsRouteMethods(t *testing.T) {
	got := buildCORSConfig(corsConfigFor(nil, false))
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.True(t, slices.Contains(got.AllowMethods, method), "missing %s in %v", method, got.AllowMethods)
	}
}

func TestCORSPreflight_PutUpdateRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	origin := "https://finance.example.com"

	engine := gin.New()
	engine.Use(cors.New(buildCORSConfig(corsConfigFor([]string{origin}, false))))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.PUT("/api/v1/budgets/:budgetId", ok)
	engine.PUT("/api/v1/budgets/:budgetId/finalize", ok)
	engine.PUT("/api/v1/expenses/:id", ok)

	for _, path := range []string{"/api/v1/budgets/b1", "/api/v1/budgets/b1/finalize", "/api/v1/expenses/e1"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
		allowed := strings.Split(rec.Header().Get("Access-Control-Allow-Methods"), ",")
		assert.Contains(t, allowed, http.MethodPut)
	}

	// Origins outside the allowlist are refused.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/expenses/1", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
