package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/app"
	iauth "github.com/charlesng35/userprofile/internal/auth"
	testutil "github.com/charlesng35/userprofile/internal/database/testutil"
	"github.com/charlesng35/userprofile/internal/middleware"
)

func newTestRouter(t *testing.T, cfg *app.Config, rateStore middleware.RateStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: 15 * time.Minute})
	require.NoError(t, err)

	svc, err := NewServices(db, nil, cfg)
	require.NoError(t, err)

	router, err := NewRouter(db, jwtSvc, cfg, svc, rateStore)
	require.NoError(t, err)
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t, &app.Config{}, nil)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)

	ready := serve(router, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, ready.Code)
	require.Contains(t, ready.Body.String(), `"status":"up"`)
	require.Contains(t, ready.Body.String(), `"component":"field_list"`)

	for _, path := range []string{"/api/auth/me", "/api/users", "/api/profile", "/api/admin/profile/config", "/api/modules"} {
		require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, path).Code, path)
	}

	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics").Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	cfg := &app.Config{Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/internal/metrics"}}}
	router := newTestRouter(t, cfg, nil)

	w := serve(router, http.MethodGet, "/internal/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_ReadinessDegradesOnMissingDependency(t *testing.T) {
	cfg := &app.Config{Modules: app.ModulesConfig{Dependencies: []app.DependencyConfig{{Module: "Common", MinVersion: "3.4.54"}}}}
	router := newTestRouter(t, cfg, nil)

	w := serve(router, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"degraded"`)
	require.Contains(t, w.Body.String(), "Common")
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	cfg := &app.Config{Auth: app.AuthConfig{RateLimit: app.RateLimitSettings{LoginRequests: 2, Window: time.Minute}}}
	router := newTestRouter(t, cfg, middleware.NewMemoryRateStore())

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/api/auth/login").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/api/auth/login").Code)

	// Other routes are not affected by the login budget.
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, nil, nil, nil, nil)
	require.Error(t, err)

	_, err = NewServices(nil, nil, &app.Config{})
	require.Error(t, err)
}
