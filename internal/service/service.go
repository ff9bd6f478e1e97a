package service

import (
	"context"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates an account, emails a verification link and signs the
	// user in straight away.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)

	// Login checks credentials and enforces the failed-attempt lockout.
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)

	// Logout ends a session. Issued tokens stay valid until they expire.
	Logout(ctx context.Context, userID uuid.UUID)

	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*model.User, *auth.Claims, error)

	// RefreshIfNeeded reissues a token whose expiry falls inside the refresh window.
	RefreshIfNeeded(claims *auth.Claims, userID uuid.UUID) (token string, expiresAt time.Time, refreshed bool, err error)

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (*model.AuthResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, user *model.User) error
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, user *model.User, req *model.UpdatePasswordRequest) (*model.AuthResponse, error)

	// DeleteAccount deactivates the account; the record is kept.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// UserService defines profile, address book, wishlist and admin user operations.
type UserService interface {
	Profile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)

	AddAddress(ctx context.Context, id uuid.UUID, addr model.Address) ([]model.Address, error)
	UpdateAddress(ctx context.Context, id, addressID uuid.UUID, addr model.Address) ([]model.Address, error)
	DeleteAddress(ctx context.Context, id, addressID uuid.UUID) ([]model.Address, error)

	Wishlist(ctx context.Context, id uuid.UUID) ([]model.Product, error)
	AddToWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error)
	RemoveFromWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error)

	List(ctx context.Context, page int) (*model.UserPage, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, req *model.AdminUpdateUserRequest) (*model.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CartService defines operations on the stored cart of a signed-in user and
// pricing of guest carts.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.CartView, error)
	Add(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) (*model.CartView, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartView, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error

	// Sync merges a guest cart into the stored cart.
	Sync(ctx context.Context, userID uuid.UUID, guestCart []model.GuestCartItem) (*model.CartView, error)

	// PriceGuestCart prices lines held by a client that is not signed in.
	PriceGuestCart(ctx context.Context, items []model.GuestCartItem) (*model.CartView, error)
}

// OrderService defines checkout and order management.
type OrderService interface {
	// Create places an order for buyer, or for req.GuestUser when buyer is nil.
	Create(ctx context.Context, buyer *model.User, req *model.OrderRequest) (*model.Order, error)

	// Get returns an order visible to viewer or to a guest quoting the order email.
	Get(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error)

	Mine(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GuestOrders(ctx context.Context, email string) ([]model.Order, error)
	List(ctx context.Context, status model.OrderStatus, page int) (*model.OrderPage, error)
	Pay(ctx context.Context, id uuid.UUID, viewer *model.User, result model.PaymentResult) (*model.Order, error)
	Deliver(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error)

	// Cancel returns the stock of a Pending or Processing order.
	Cancel(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error)

	Stats(ctx context.Context) (*model.OrderStats, error)
}

// ProductService defines catalogue operations.
type ProductService interface {
	List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID uuid.UUID, user *model.User, req *model.ReviewRequest) (*model.Product, error)
	Top(ctx context.Context) ([]model.Product, error)
	Featured(ctx context.Context) ([]model.Product, error)
	New(ctx context.Context) ([]model.Product, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	ByCategory(ctx context.Context, category string, page int) (*model.ProductPage, error)
}

// CategoryService defines category operations.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Tree(ctx context.Context) ([]*model.CategoryNode, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error)

	// Delete refuses while products still name the category.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentService defines card and mobile wallet payments.
type PaymentService interface {
	CreateCardIntent(ctx context.Context, userID uuid.UUID, amount float64, currency string) (*payment.Intent, error)
	ChargeWallet(ctx context.Context, method model.PaymentMethod, amount float64, phone string) (*payment.WalletResult, error)
	Verify(ctx context.Context, method model.PaymentMethod, transactionID string) (*payment.VerifyResult, error)
}

func rollback(ctx context.Context, tx pgx.Tx, logger zerolog.Logger) {
	if err := tx.Rollback(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}

func normalisePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
