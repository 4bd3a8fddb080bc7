package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookpasal/bookpasal-backend/internal/api/httpx"
	"github.com/bookpasal/bookpasal-backend/internal/esewa"
	"github.com/bookpasal/bookpasal-backend/internal/middleware"
	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/bookpasal/bookpasal-backend/internal/services"
)

type PaymentServiceContract interface {
	Initiate(ctx context.Context, bookID string) (services.Initiation, error)
	HandleCallback(ctx context.Context, userID, bookID, raw string) (services.CallbackResult, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
}

type PaymentHandler struct {
	svc PaymentServiceContract
}

func NewPaymentHandler(svc PaymentServiceContract) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Buy returns the signed initiation payload the client forwards to the
// gateway.
func (h *PaymentHandler) Buy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	init, err := h.svc.Initiate(r.Context(), id)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, init)
}

// Callback receives the gateway's redirect with the base64 JSON blob in
// ?data= and answers with the terminal outcome of that delivery.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	raw := r.URL.Query().Get("data")
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "no data received from gateway", nil)
		return
	}

	userID, _ := middleware.UserID(r.Context())
	res, err := h.svc.HandleCallback(r.Context(), userID, id, raw)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}

	status := http.StatusOK
	if res.Status == models.PaymentPending {
		status = http.StatusAccepted
	}
	httpx.WriteJSON(w, status, res)
}

func (h *PaymentHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 { limit = n }
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 { offset = n }
	}

	orders, err := h.svc.ListOrders(r.Context(), userID, limit, offset)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orders)
}

// writePaymentError maps the payment error taxonomy onto stable reason
// codes. Reasons never carry the payload, the secret, or any computed
// signature.
func (h *PaymentHandler) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, esewa.ErrPayloadInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", err.Error(), nil)
	case errors.Is(err, services.ErrNotAuthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "not_authenticated", "user not authenticated", nil)
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(w, http.StatusNotFound, "book_not_found", "book not found", nil)
	case errors.Is(err, services.ErrSignatureMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_signature", "payment verification failed", nil)
	case errors.Is(err, services.ErrUnknownStatus):
		httpx.WriteError(w, http.StatusBadRequest, "unknown_status", err.Error(), nil)
	case errors.Is(err, esewa.ErrSecretMissing):
		httpx.WriteError(w, http.StatusInternalServerError, "payment_not_configured", "payment gateway not configured", nil)
	default:
		slog.Error("payment handler", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
