package dues

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// Handler exposes the dues workflow over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: shared.NewValidator()}
}

// MountRoutes registers dues routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dues", h.list)
	r.Post("/dues", h.create)
	r.Get("/dues/{id}", h.show)
	r.Post("/dues/{id}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status: DueStatus(q.Get("status")),
		Type:   DueType(q.Get("type")),
	}
	if raw := q.Get("householdId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid household id")
			return
		}
		filters.HouseholdID = &id
	}
	for _, param := range []struct {
		name   string
		target *int
	}{
		{"fiscalMonth", &filters.FiscalMonth},
		{"fiscalYear", &filters.FiscalYear},
	} {
		raw := q.Get(param.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param.name)
			return
		}
		*param.target = n
	}

	listing, err := h.service.List(r.Context(), filters)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", verr.Message)
			return
		}
		h.logger.Error("list dues failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid due id")
		return
	}
	due, err := h.service.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrDueNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Due not found")
	case err != nil:
		h.logger.Error("get due failed", slog.String("due_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, due)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, nil)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid due id")
		return
	}
	h.submit(w, r, &id)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, existingID *uuid.UUID) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var form DueForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		fields := shared.FieldErrors(err)
		httpx.JSON(w, http.StatusUnprocessableEntity, Result{
			Message: shared.FirstMessage(fields),
			Code:    KindInvalidPayload,
		})
		return
	}
	payload, err := form.Payload(h.service.Location())
	if err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, failure("create", err))
		return
	}

	res := h.service.Submit(r.Context(), actor, payload, existingID)
	httpx.JSON(w, statusFor(res, existingID == nil), res)
}

func statusFor(res Result, created bool) int {
	if res.Success {
		if created {
			return http.StatusCreated
		}
		return http.StatusOK
	}
	switch res.Code {
	case KindDueNotFound:
		return http.StatusNotFound
	case KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
