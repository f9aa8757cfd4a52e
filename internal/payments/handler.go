package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/httpx"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

const idempotencyModule = "payments"

// KeyStore claims Idempotency-Key header values.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Handler exposes payment recording.
type Handler struct {
	logger  *slog.Logger
	service *Service
	keys    KeyStore
}

// NewHandler constructs the payment handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// WithIdempotency makes the Idempotency-Key header reject replayed payments.
func (h *Handler) WithIdempotency(keys KeyStore) *Handler {
	h.keys = keys
	return h
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/dues/{id}/payments", h.record)
}

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	dueID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid due id")
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.keys != nil {
		if err := h.keys.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.JSON(w, http.StatusConflict, errorResponse{Message: "Payment already submitted with this Idempotency-Key"})
				return
			}
			h.logger.Error("claim idempotency key", slog.Any("error", err))
			httpx.JSON(w, http.StatusInternalServerError, errorResponse{Message: "Failed to record payment"})
			return
		}
	}

	receipt, err := h.service.Record(r.Context(), actor, dueID, in)
	if err != nil && key != "" && h.keys != nil {
		if derr := h.keys.Delete(r.Context(), key, idempotencyModule); derr != nil {
			h.logger.Warn("release idempotency key", slog.Any("error", derr))
		}
	}
	var verr *ValidationError
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, receipt)
	case errors.As(err, &verr):
		httpx.JSON(w, http.StatusUnprocessableEntity, errorResponse{Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, dues.ErrDueNotFound):
		httpx.JSON(w, http.StatusNotFound, errorResponse{Message: "Due not found"})
	case errors.Is(err, ErrNotPayable), errors.Is(err, ErrOverpayment):
		httpx.JSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	default:
		h.logger.Error("record payment failed", slog.String("due_id", dueID.String()), slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, errorResponse{Message: "Failed to record payment"})
	}
}
