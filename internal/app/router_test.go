package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/observability"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
	_ "github.com/kylemastercoder14/HomeownersAssociation/testing"
)

type mounterFunc func(r chi.Router)

func (f mounterFunc) MountRoutes(r chi.Router) { f(r) }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "hoa_session", "secret", time.Hour, false)
	return NewRouter(RouterParams{
		Logger:         slog.Default(),
		Config:         &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		SessionManager: sessions,
		Metrics:        observability.NewMetrics(),
		AuthHandler: mounterFunc(func(r chi.Router) {
			r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
				shared.SessionFromContext(r.Context()).SetUser("admin-1")
				w.WriteHeader(http.StatusOK)
			})
		}),
		RequireAdmin: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if shared.SessionFromContext(r.Context()).User() == "" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		Protected: []RouteMounter{mounterFunc(func(r chi.Router) {
			r.Get("/dues", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			})
		})},
	})
}

func TestHealthzSetsSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Empty(t, rec.Result().Cookies(), "anonymous sessions are not persisted")
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dues", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "hoa_session", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/dues", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `[]`, rec.Body.String())
}

func TestMetricsEndpointIsMounted(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "hoa_http_requests_total")
}
