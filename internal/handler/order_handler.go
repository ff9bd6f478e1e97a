package handler

import (
	"net/http"
	"net/url"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders for signed-in users and guests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if len(req.OrderItems) == 0 {
		writeError(w, model.ErrEmptyOrder, h.logger)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), middleware.UserFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{id}. Guests identify themselves with the
// guestEmail query parameter.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Get(r.Context(), id, middleware.UserFromContext(r.Context()), r.URL.Query().Get("guestEmail"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Mine handles GET /api/orders/myorders.
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Mine(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Guest handles GET /api/orders/guest/{email}.
func (h *OrderHandler) Guest(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		writeError(w, model.NewValidationError("email is required"), h.logger)
		return
	}

	orders, err := h.service.GuestOrders(r.Context(), email)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// List handles GET /api/orders (admin).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), model.OrderStatus(r.URL.Query().Get("status")), pageParam(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Stats handles GET /api/orders/stats (admin).
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Pay handles PUT /api/orders/{id}/pay.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var result model.PaymentResult
	if err := decodeJSON(w, r, &result, true); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Pay(r.Context(), id, middleware.UserFromContext(r.Context()), result)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Deliver handles PUT /api/orders/{id}/deliver (admin).
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Deliver(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status (admin).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel handles PUT /api/orders/{id}/cancel. Guests send guestEmail in the body.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.CancelOrderRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Cancel(r.Context(), id, middleware.UserFromContext(r.Context()), req.GuestEmail)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
