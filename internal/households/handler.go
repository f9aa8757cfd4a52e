package households

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// Handler exposes household endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the household handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers household routes. Ledger routes for a household are
// mounted by the ledger handler.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/households", h.list)
	r.Post("/households", h.create)
	r.Get("/households/{id}", h.show)
	r.Post("/households/{id}/status", h.changeStatus)
}

type listResponse struct {
	Households []Household       `json:"households"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	pg := shared.NewPagination(page, limit, 0)
	filters := ListFilters{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
		Page:   pg.Page,
		Limit:  pg.PerPage,
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []Household{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Households: items,
		Pagination: pg.WithTotal(total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid household id")
		return
	}
	household, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, household)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid household id")
		return
	}
	var in StatusInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.ChangeStatus(r.Context(), actor, id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type validationResponse struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSON(w, http.StatusUnprocessableEntity, validationResponse{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Errors: verr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Household does not exist")
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "A household with this block and lot already exists")
	default:
		h.logger.Error("household request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
