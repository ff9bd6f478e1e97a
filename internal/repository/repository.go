package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepository defines the interface for user data access operations.
// Lookups return nil, nil when no user matches.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields model.ErrEmailTaken.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByResetToken finds the user holding an unexpired reset token digest.
	GetByResetToken(ctx context.Context, digest string, now time.Time) (*model.User, error)

	// GetByVerificationToken finds the user holding an unexpired verification token digest.
	GetByVerificationToken(ctx context.Context, digest string, now time.Time) (*model.User, error)

	// UpdateProfile stores name, email, phone, avatar and admin flag.
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdatePassword stores a new hash and clears any reset token.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error

	// UpdateLoginState stores the failed-attempt counter, lock and last login.
	UpdateLoginState(ctx context.Context, user *model.User) error

	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID) error

	UpdateCart(ctx context.Context, id uuid.UUID, cart []model.CartItem) error
	UpdateAddresses(ctx context.Context, id uuid.UUID, addresses []model.Address) error
	UpdateWishlist(ctx context.Context, id uuid.UUID, wishlist []uuid.UUID) error

	// Deactivate soft-deletes the account.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// List returns a page of users, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List returns the products matching filter and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID, or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves the existing products among ids.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	Create(ctx context.Context, product *model.Product) error

	// Update replaces the editable fields. Returns model.ErrProductNotFound if absent.
	Update(ctx context.Context, product *model.Product) error

	Delete(ctx context.Context, id uuid.UUID) error

	// SaveReviews stores the review list with its aggregate rating.
	SaveReviews(ctx context.Context, product *model.Product) error

	Top(ctx context.Context, limit int) ([]model.Product, error)
	Featured(ctx context.Context, limit int) ([]model.Product, error)
	Newest(ctx context.Context, limit int) ([]model.Product, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int, error)

	// GetForUpdate reads a product and locks its row until tx ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)

	// AdjustStock adds delta to stock and subtracts it from sold.
	AdjustStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID, or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate reads an order and locks its row until tx ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// SetStatus changes the status within the provided transaction.
	SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListByGuestEmail(ctx context.Context, email string) ([]model.Order, error)

	// List returns a page of orders, optionally filtered by status, and the total count.
	List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, int, error)

	MarkPaid(ctx context.Context, id uuid.UUID, result model.PaymentResult, paidAt time.Time) (*model.Order, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, tracking, notes string) (*model.Order, error)

	// Stats aggregates order counts and revenue relative to now.
	Stats(ctx context.Context, now time.Time) (*model.OrderStats, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)

	// Create inserts a category. A duplicate slug yields model.ErrSlugTaken.
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
