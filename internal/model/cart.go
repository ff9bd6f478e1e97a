package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a line of a cart stored on the user document.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// GuestCartItem is a cart line held in client storage before sign-in.
type GuestCartItem struct {
	ProductID uuid.UUID `json:"product" validate:"required"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
}

// SyncCartRequest carries the guest cart to merge at login.
type SyncCartRequest struct {
	GuestCart []GuestCartItem `json:"guestCart" validate:"dive"`
}

// AddToCartRequest adds a product to the signed-in user's cart.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
	Variant   string    `json:"variant,omitempty"`
}

// UpdateCartItemRequest sets the quantity of a cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GuestCartRequest asks the server to price a guest cart.
type GuestCartRequest struct {
	CartItems []GuestCartItem `json:"cartItems" validate:"dive"`
}

// CartLine is a priced cart line returned to clients.
type CartLine struct {
	ID       uuid.UUID `json:"id,omitempty"`
	Product  *Product  `json:"product"`
	Quantity int       `json:"quantity"`
	Variant  string    `json:"variant,omitempty"`
}

// CartView is the priced cart with its totals.
type CartView struct {
	CartItems  []CartLine `json:"cartItems"`
	CartTotal  float64    `json:"cartTotal"`
	ItemsCount int        `json:"itemsCount"`
}

type cartKey struct {
	product uuid.UUID
	variant string
}

func keyOf(productID uuid.UUID, variant string) cartKey {
	return cartKey{product: productID, variant: variant}
}

// AddCartLine adds quantity of (product, variant) to cart, summing into an
// existing line with the same pair or appending a new one.
func AddCartLine(cart []CartItem, productID uuid.UUID, quantity int, variant string, now time.Time) []CartItem {
	k := keyOf(productID, variant)
	for i := range cart {
		if keyOf(cart[i].ProductID, cart[i].Variant) == k {
			cart[i].Quantity += quantity
			return cart
		}
	}
	return append(cart, CartItem{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		Variant:   variant,
		AddedAt:   now,
	})
}

// MergeCart folds a guest cart into a user cart. Lines with the same
// (product, variant) pair have their quantities summed; other guest lines are
// appended in the order they were given.
func MergeCart(userCart []CartItem, guestCart []GuestCartItem, now time.Time) []CartItem {
	merged := make([]CartItem, len(userCart), len(userCart)+len(guestCart))
	copy(merged, userCart)

	for _, g := range guestCart {
		if g.Quantity <= 0 {
			continue
		}
		merged = AddCartLine(merged, g.ProductID, g.Quantity, g.Variant, now)
	}
	return merged
}

// FindCartLine returns the index of the line with id, or -1.
func FindCartLine(cart []CartItem, id uuid.UUID) int {
	for i := range cart {
		if cart[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveCartLine drops the line with id and reports whether it existed.
func RemoveCartLine(cart []CartItem, id uuid.UUID) ([]CartItem, bool) {
	idx := FindCartLine(cart, id)
	if idx < 0 {
		return cart, false
	}
	out := make([]CartItem, 0, len(cart)-1)
	out = append(out, cart[:idx]...)
	return append(out, cart[idx+1:]...), true
}
