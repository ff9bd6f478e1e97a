package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, user_id, guest_user, order_items, shipping_address, payment_method, payment_result,
	items_price, tax_price, shipping_price, total_price, is_paid, paid_at,
	is_delivered, delivered_at, status, tracking_number, notes, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, guest_user, order_items, shipping_address, payment_method, payment_result,
			items_price, tax_price, shipping_price, total_price, is_paid, paid_at,
			is_delivered, delivered_at, status, tracking_number, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.GuestUser, order.OrderItems, order.ShippingAddress,
		order.PaymentMethod, order.PaymentResult,
		order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice,
		order.IsPaid, order.PaidAt, order.IsDelivered, order.DeliveredAt,
		order.Status, order.TrackingNumber, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.OrderItems)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, r.pool, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

// GetForUpdate reads an order and locks its row until tx ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, tx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

func (r *orderRepository) getOne(ctx context.Context, q querier, query string, args ...any) (*model.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to scan order")
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return order, nil
}

// SetStatus changes the status within the provided transaction.
func (r *orderRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	tag, err := tx.Exec(ctx, "UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set order status")
		return fmt.Errorf("failed to set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// ListByUser returns a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

// ListByGuestEmail returns the guest orders placed with email, newest first.
func (r *orderRepository) ListByGuestEmail(ctx context.Context, email string) ([]model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE LOWER(guest_user ->> 'email') = LOWER($1) ORDER BY created_at DESC"
	return r.query(ctx, query, email)
}

// List returns a page of orders, optionally filtered by status, and the total count.
func (r *orderRepository) List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)-1, len(args))

	orders, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkPaid records a payment confirmation.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, result model.PaymentResult, paidAt time.Time) (*model.Order, error) {
	query := `
		UPDATE orders SET is_paid = TRUE, paid_at = $2, payment_result = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns
	return r.getOne(ctx, r.pool, query, id, paidAt, result)
}

// MarkDelivered flags the order as delivered.
func (r *orderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) (*model.Order, error) {
	query := `
		UPDATE orders SET is_delivered = TRUE, delivered_at = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns
	return r.getOne(ctx, r.pool, query, id, deliveredAt, model.OrderStatusDelivered)
}

// UpdateStatus sets the status. Empty tracking and notes keep their values.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, tracking, notes string) (*model.Order, error) {
	query := `
		UPDATE orders SET
			status = $2,
			tracking_number = COALESCE(NULLIF($3, ''), tracking_number),
			notes = COALESCE(NULLIF($4, ''), notes),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns
	return r.getOne(ctx, r.pool, query, id, status, tracking, notes)
}

// Stats aggregates order counts and revenue relative to now.
func (r *orderRepository) Stats(ctx context.Context, now time.Time) (*model.OrderStats, error) {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COALESCE(SUM(total_price) FILTER (WHERE is_paid), 0)::float8,
			COALESCE(SUM(total_price) FILTER (WHERE is_paid AND created_at >= $1), 0)::float8
		FROM orders
	`

	stats := &model.OrderStats{}
	err := r.pool.QueryRow(ctx, query, startOfMonth, startOfYear).Scan(
		&stats.TotalOrders,
		&stats.MonthlyOrders,
		&stats.YearlyOrders,
		&stats.TotalRevenue,
		&stats.MonthlyRevenue,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to aggregate orders")
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders by status")
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	stats.OrdersByStatus, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StatusCount, error) {
		var sc model.StatusCount
		err := row.Scan(&sc.Status, &sc.Count)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan status counts: %w", err)
	}

	stats.RecentOrders, err = r.query(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT 5")
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Order])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan orders")
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}
	return orders, nil
}
