package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
)

const (
	defaultDateRange = 30 * 24 * time.Hour
	maxDateRange     = 366 * 24 * time.Hour
)

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
	loc     *time.Location
	now     func() time.Time
}

// NewHandler builds the audit handler. Dates in query strings are read in loc.
func NewHandler(logger *slog.Logger, service *Service, loc *time.Location) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{logger: logger, service: service, loc: loc, now: time.Now}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, field, ok := h.parseFilters(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+field)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, string, bool) {
	q := r.URL.Query()
	now := h.now().In(h.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc).AddDate(0, 0, 1)
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			return TimelineFilters{}, "to", false
		}
		to = t.AddDate(0, 0, 1)
	}
	from := to.Add(-defaultDateRange)
	if s := strings.TrimSpace(q.Get("from")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			return TimelineFilters{}, "from", false
		}
		from = t
	}
	if !from.Before(to) || to.Sub(from) > maxDateRange {
		return TimelineFilters{}, "range", false
	}

	f := TimelineFilters{
		From:     from,
		To:       to,
		Entity:   q.Get("entity"),
		EntityID: q.Get("entityId"),
		Action:   q.Get("action"),
	}
	if s := strings.TrimSpace(q.Get("actor")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return TimelineFilters{}, "actor", false
		}
		f.ActorID = id
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	return f, "", true
}
