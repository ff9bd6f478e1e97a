package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles profile, address book, wishlist and admin user requests.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Profile handles GET /api/users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middleware.UserFromContext(r.Context()).ID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// AddAddress handles POST /api/users/addresses.
func (h *UserHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var addr model.Address
	if err := decode(w, r, &addr); err != nil {
		writeError(w, err, h.logger)
		return
	}

	addresses, err := h.service.AddAddress(r.Context(), middleware.UserFromContext(r.Context()).ID, addr)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, addresses)
}

// UpdateAddress handles PUT /api/users/addresses/{addressId}.
func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := idParam(r, "addressId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var addr model.Address
	if err := decode(w, r, &addr); err != nil {
		writeError(w, err, h.logger)
		return
	}

	addresses, err := h.service.UpdateAddress(r.Context(), middleware.UserFromContext(r.Context()).ID, addressID, addr)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

// DeleteAddress handles DELETE /api/users/addresses/{addressId}.
func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := idParam(r, "addressId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	addresses, err := h.service.DeleteAddress(r.Context(), middleware.UserFromContext(r.Context()).ID, addressID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

// Wishlist handles GET /api/users/wishlist.
func (h *UserHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Wishlist(r.Context(), middleware.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// AddToWishlist handles POST /api/users/wishlist/{productId}.
func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	wishlist, err := h.service.AddToWishlist(r.Context(), middleware.UserFromContext(r.Context()).ID, productID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

// RemoveFromWishlist handles DELETE /api/users/wishlist/{productId}.
func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	wishlist, err := h.service.RemoveFromWishlist(r.Context(), middleware.UserFromContext(r.Context()).ID, productID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

// List handles GET /api/users (admin).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/users/{id} (admin).
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id} (admin).
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AdminUpdateUserRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Deactivate handles DELETE /api/users/{id} (admin). The account is kept
// but can no longer sign in.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "User deactivated"})
}
