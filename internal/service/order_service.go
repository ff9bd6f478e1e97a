package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderPageSize is the number of orders per admin listing page.
const OrderPageSize = 10

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	mailer      mail.Mailer
	frontendURL string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	frontendURL string,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mailer:      mailer,
		frontendURL: frontendURL,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create places an order. Every product row is locked, checked and
// decremented inside one transaction, so either the whole order is placed
// or no stock moves.
func (s *orderService) Create(ctx context.Context, buyer *model.User, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(buyer, req); err != nil {
		return nil, err
	}

	// Lock rows in a stable order so concurrent checkouts cannot deadlock.
	need := make(map[uuid.UUID]int, len(req.OrderItems))
	for _, item := range req.OrderItems {
		need[item.ProductID] += item.Quantity
	}
	ids := make([]uuid.UUID, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	products := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			rollback(ctx, tx, s.logger)
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if product == nil {
			rollback(ctx, tx, s.logger)
			return nil, model.ErrProductNotFound
		}
		if product.Stock < need[id] {
			rollback(ctx, tx, s.logger)
			s.logger.Warn().
				Str("product_id", id.String()).
				Int("stock", product.Stock).
				Int("requested", need[id]).
				Msg("insufficient stock")
			return nil, model.NewInsufficientStockError(product.Name)
		}
		products[id] = product
	}

	items := make([]model.OrderItem, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		product := products[item.ProductID]
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
			Price:     product.UnitPrice(item.Variant),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}

	for _, id := range ids {
		if err := s.productRepo.AdjustStock(ctx, tx, id, -need[id]); err != nil {
			rollback(ctx, tx, s.logger)
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	now := s.now()
	totals := model.ComputeTotals(items)
	order := &model.Order{
		ID:              uuid.New(),
		OrderItems:      items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          model.OrderStatusPending,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.ShippingAddress.Country == "" {
		order.ShippingAddress.Country = model.DefaultCountry
	}

	recipient := ""
	if buyer != nil {
		userID := buyer.ID
		order.UserID = &userID
		recipient = buyer.Email
	} else {
		guest := *req.GuestUser
		guest.Email = normaliseEmail(guest.Email)
		order.GuestUser = &guest
		recipient = guest.Email
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		rollback(ctx, tx, s.logger)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if buyer != nil {
		if err := s.userRepo.UpdateCart(ctx, buyer.ID, nil); err != nil {
			s.logger.Warn().Err(err).Str("user_id", buyer.ID.String()).Msg("failed to clear cart after order")
		}
	}

	if err := s.mailer.Send(ctx, recipient, mail.OrderConfirmationMessage(order, s.frontendURL)); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to send order confirmation")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Float64("total", order.TotalPrice).
		Bool("guest", buyer == nil).
		Msg("order created successfully")

	return order, nil
}

// validateOrderRequest checks the request before any row is locked. A
// signed-in buyer always owns the order; guest details are then ignored.
func (s *orderService) validateOrderRequest(buyer *model.User, req *model.OrderRequest) error {
	if len(req.OrderItems) == 0 {
		return model.ErrEmptyOrder
	}
	for _, item := range req.OrderItems {
		if item.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
	}
	if !req.PaymentMethod.Valid() {
		return model.ErrInvalidPayment
	}
	if buyer == nil {
		if req.GuestUser == nil ||
			strings.TrimSpace(req.GuestUser.Name) == "" ||
			strings.TrimSpace(req.GuestUser.Email) == "" {
			return model.ErrOwnerRequired
		}
	}
	return nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAccess(order, viewer, guestEmail); err != nil {
		return nil, err
	}
	return order, nil
}

// canAccess allows administrators, the owning user and a guest quoting the
// email the order was placed with.
func canAccess(order *model.Order, viewer *model.User, guestEmail string) error {
	if viewer != nil && (viewer.IsAdmin || order.OwnedBy(viewer.ID)) {
		return nil
	}
	if order.PlacedByGuest(guestEmail) {
		return nil
	}
	if viewer == nil && guestEmail == "" {
		return model.ErrUnauthorised
	}
	return model.ErrForbidden
}

func (s *orderService) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) Mine(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GuestOrders(ctx context.Context, email string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByGuestEmail(ctx, normaliseEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list guest orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) List(ctx context.Context, status model.OrderStatus, page int) (*model.OrderPage, error) {
	if status != "" && !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	page = normalisePage(page)

	orders, total, err := s.orderRepo.List(ctx, status, OrderPageSize, (page-1)*OrderPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &model.OrderPage{
		Orders: orders,
		Page:   page,
		Pages:  model.PageCount(total, OrderPageSize),
		Total:  total,
	}, nil
}

// Pay records the payment confirmation. Only the owner or an administrator
// may mark an order paid.
func (s *orderService) Pay(ctx context.Context, id uuid.UUID, viewer *model.User, result model.PaymentResult) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, model.ErrUnauthorised
	}
	if !viewer.IsAdmin && !order.OwnedBy(viewer.ID) {
		return nil, model.ErrForbidden
	}

	paid, err := s.orderRepo.MarkPaid(ctx, id, result, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if paid == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Str("payment_id", result.ID).Msg("order paid")
	return paid, nil
}

func (s *orderService) Deliver(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.MarkDelivered(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	s.logger.Info().Str("order_id", id.String()).Msg("order delivered")
	return order, nil
}

// UpdateStatus moves an order to any known status. Stock is not touched.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	if !req.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, req.Status, req.TrackingNumber, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", string(req.Status)).Msg("order status updated")
	return order, nil
}

// Cancel sets a Pending or Processing order to Cancelled and returns its
// quantities to stock in the same transaction.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		rollback(ctx, tx, s.logger)
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		rollback(ctx, tx, s.logger)
		return nil, model.ErrOrderNotFound
	}
	if err := canAccess(order, viewer, guestEmail); err != nil {
		rollback(ctx, tx, s.logger)
		return nil, err
	}
	if !order.Status.Cancellable() {
		rollback(ctx, tx, s.logger)
		return nil, model.ErrOrderNotCancellable
	}

	for _, item := range order.OrderItems {
		err := s.productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity)
		if errors.Is(err, model.ErrProductNotFound) {
			s.logger.Warn().Str("product_id", item.ProductID.String()).Msg("cancelled item no longer in catalogue")
			continue
		}
		if err != nil {
			rollback(ctx, tx, s.logger)
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err := s.orderRepo.SetStatus(ctx, tx, id, model.OrderStatusCancelled); err != nil {
		rollback(ctx, tx, s.logger)
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.Status = model.OrderStatusCancelled
	order.UpdatedAt = s.now()
	s.logger.Info().Str("order_id", id.String()).Msg("order cancelled")
	return order, nil
}

func (s *orderService) Stats(ctx context.Context) (*model.OrderStats, error) {
	stats, err := s.orderRepo.Stats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}
	return stats, nil
}
