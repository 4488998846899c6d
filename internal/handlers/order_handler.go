package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/dineqr/order-api/internal/metrics"
	"github.com/dineqr/order-api/internal/models"
	"github.com/dineqr/order-api/internal/service"
)

// OrderHandler handles order placement requests.
type OrderHandler struct {
	orderService *service.OrderService
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService *service.OrderService, m *metrics.Metrics, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		metrics:      m,
		log:          log,
	}
}

// CreateOrder handles POST /api/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode order request", "error", err)
		h.metrics.OrderRejected("malformed_body")
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), req, ClientIP(r))
	if err != nil {
		var rej *service.Rejection
		if errors.As(err, &rej) {
			h.log.Info("order rejected", "reason", rej.Reason, "restaurant_id", req.RestaurantID)
			h.metrics.OrderRejected(rej.Reason)
			WriteError(w, rej.Status, rej.Message, h.log)
			return
		}

		h.log.Error("failed to place order", "restaurant_id", req.RestaurantID, "error", err)
		h.metrics.OrderRejected("internal_error")
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	h.metrics.OrderPlaced(order.TotalCents)
	WriteJSON(w, http.StatusOK, order, h.log)
	h.log.Info("order placed",
		"order_id", order.ID,
		"restaurant_id", order.RestaurantID,
		"total_cents", order.TotalCents,
		"discount_cents", order.DiscountCents,
	)
}

// ClientIP resolves the caller's address: first entry of X-Forwarded-For if
// present, otherwise the connection's remote address. Returns "" when
// neither yields anything usable.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
