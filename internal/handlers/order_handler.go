package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealbox/orderd/internal/middleware"
	"github.com/mealbox/orderd/internal/models"
	"github.com/mealbox/orderd/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), userID, req)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.log.Info("order created", "order_id", order.ID, "user_id", userID, "total_price", order.TotalPrice)
	WriteJSON(w, http.StatusCreated, map[string]string{"order_id": order.ID}, h.log)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	orders, err := h.orderService.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// GetOrder handles GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	orderID := chi.URLParam(r, "orderId")

	detail, err := h.orderService.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail, h.log)
}

// CancelOrder handles PATCH /api/v1/orders/{orderId}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	orderID := chi.URLParam(r, "orderId")

	if err := h.orderService.Cancel(r.Context(), orderID, userID); err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.log.Info("order cancelled", "order_id", orderID, "user_id", userID)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Order cancelled and stock replenished."}, h.log)
}

// writeOrderError maps workflow errors onto HTTP responses. Store failures
// stay opaque: a summary 500 goes to the client, the cause goes to the log.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error) {
	var (
		verr     *models.ValidationError
		leadErr  *models.LeadTimeError
		unknown  *models.UnknownItemError
		stockErr *models.InsufficientStockError
	)

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": verr.Fields,
		}, h.log)
	case errors.As(err, &leadErr):
		WriteError(w, http.StatusBadRequest, leadErr.Error(), h.log)
	case errors.As(err, &unknown):
		WriteError(w, http.StatusBadRequest, unknown.Error(), h.log)
	case errors.As(err, &stockErr):
		WriteError(w, http.StatusBadRequest, stockErr.Error(), h.log)
	case errors.Is(err, models.ErrNoValidItems):
		WriteError(w, http.StatusBadRequest, "No valid menu items found", h.log)
	case errors.Is(err, models.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "Order not found", h.log)
	default:
		h.log.Error("order request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
