package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles the stored cart of signed-in users and guest cart pricing.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Add handles POST /api/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	view, err := h.service.Add(r.Context(), middleware.UserFromContext(r.Context()).ID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Update handles PUT /api/cart/{itemId}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateCartItemRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), middleware.UserFromContext(r.Context()).ID, itemID, req.Quantity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Remove handles DELETE /api/cart/{itemId}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	view, err := h.service.Remove(r.Context(), middleware.UserFromContext(r.Context()).ID, itemID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), middleware.UserFromContext(r.Context()).ID); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, model.CartView{CartItems: []model.CartLine{}})
}

// Sync handles POST /api/cart/sync, merging the guest cart held by the client
// into the stored cart after sign-in.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req model.SyncCartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	view, err := h.service.Sync(r.Context(), middleware.UserFromContext(r.Context()).ID, req.GuestCart)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Guest handles POST /api/cart/guest.
func (h *CartHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req model.GuestCartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	view, err := h.service.PriceGuestCart(r.Context(), req.CartItems)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
