package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// RequireAdmin rejects requests without an authenticated, active admin and
// stores the admin id in the request context for downstream handlers.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		id, err := uuid.Parse(sess.User())
		if err != nil {
			h.sessionManager.Destroy(sess)
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if _, err := h.service.ActiveAdmin(r.Context(), id); err != nil {
			if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrUnauthenticated) {
				h.sessionManager.Destroy(sess)
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			h.logger.Error("resolve admin", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), id)))
	})
}
