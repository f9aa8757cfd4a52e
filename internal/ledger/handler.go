package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
)

// Handler serves household statements.
type Handler struct {
	logger  *slog.Logger
	service *Service
	loc     *time.Location
}

// NewHandler builds the ledger handler. Date filters are read in loc.
func NewHandler(logger *slog.Logger, service *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{logger: logger, service: service, loc: loc}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/households/{id}/ledger", h.statement)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid household id")
		return
	}
	from, err := h.parseDate(r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be YYYY-MM-DD")
		return
	}
	to, err := h.parseDate(r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be YYYY-MM-DD")
		return
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}

	st, err := h.service.Statement(r.Context(), id, from, to)
	switch {
	case errors.Is(err, households.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Household does not exist")
	case err != nil:
		h.logger.Error("ledger statement failed", slog.String("household_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, st)
	}
}

func (h *Handler) parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
