package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/observability"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// RouteMounter is implemented by every module handler.
type RouteMounter interface {
	MountRoutes(r chi.Router)
}

// RouterParams holds dependencies for router construction.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	AuthHandler RouteMounter
	JobHandler  RouteMounter
	// RequireAdmin guards every module mounted under Protected.
	RequireAdmin func(http.Handler) http.Handler
	Protected    []RouteMounter
}

// NewRouter constructs the chi router with middleware and routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		if params.RequireAdmin != nil {
			r.Use(params.RequireAdmin)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
		for _, h := range params.Protected {
			if h != nil {
				h.MountRoutes(r)
			}
		}
	})

	return r
}
