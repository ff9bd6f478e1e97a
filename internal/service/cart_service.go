package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(userRepo repository.UserRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		userRepo:    userRepo,
		productRepo: productRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) loadCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user.Cart, nil
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Add puts quantity units of a product into the cart. A zero quantity means
// one unit; the resulting line quantity must be covered by stock.
func (s *cartService) Add(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) (*model.CartView, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	existing := 0
	for _, line := range cart {
		if line.ProductID == req.ProductID && line.Variant == req.Variant {
			existing = line.Quantity
			break
		}
	}
	if product.Stock < existing+quantity {
		return nil, model.NewInsufficientStockError(product.Name)
	}

	cart = model.AddCartLine(cart, req.ProductID, quantity, req.Variant, s.now())
	if err := s.save(ctx, userID, cart); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("product_id", req.ProductID.String()).
		Int("quantity", quantity).
		Msg("added to cart")
	return s.view(ctx, cart)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := model.FindCartLine(cart, itemID)
	if idx < 0 {
		return nil, model.ErrCartItemNotFound
	}

	product, err := s.product(ctx, cart[idx].ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, model.NewInsufficientStockError(product.Name)
	}

	cart[idx].Quantity = quantity
	if err := s.save(ctx, userID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, ok := model.RemoveCartLine(cart, itemID)
	if !ok {
		return nil, model.ErrCartItemNotFound
	}
	if err := s.save(ctx, userID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.save(ctx, userID, nil)
}

// Sync merges a guest cart into the stored one. Lines for products that no
// longer exist are dropped.
func (s *cartService) Sync(ctx context.Context, userID uuid.UUID, guestCart []model.GuestCartItem) (*model.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(guestCart) == 0 {
		return s.view(ctx, cart)
	}

	products, err := s.products(ctx, guestItemIDs(guestCart))
	if err != nil {
		return nil, err
	}
	known := make([]model.GuestCartItem, 0, len(guestCart))
	for _, g := range guestCart {
		if _, ok := products[g.ProductID]; ok {
			known = append(known, g)
		}
	}

	merged := model.MergeCart(cart, known, s.now())
	if err := s.save(ctx, userID, merged); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("guest_lines", len(guestCart)).
		Int("cart_lines", len(merged)).
		Msg("guest cart synced")
	return s.view(ctx, merged)
}

func (s *cartService) PriceGuestCart(ctx context.Context, items []model.GuestCartItem) (*model.CartView, error) {
	lines := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		lines = append(lines, model.CartItem{ProductID: it.ProductID, Quantity: it.Quantity, Variant: it.Variant})
	}
	return s.view(ctx, lines)
}

// view prices the cart against current product data. Lines whose product
// has been deleted are left out.
func (s *cartService) view(ctx context.Context, cart []model.CartItem) (*model.CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart))
	for _, line := range cart {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &model.CartView{CartItems: []model.CartLine{}}
	total := decimal.Zero
	for _, line := range cart {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}
		price := decimal.NewFromFloat(product.UnitPrice(line.Variant))
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		view.ItemsCount += line.Quantity
		view.CartItems = append(view.CartItems, model.CartLine{
			ID:       line.ID,
			Product:  product,
			Quantity: line.Quantity,
			Variant:  line.Variant,
		})
	}
	view.CartTotal = total.Round(2).InexactFloat64()
	return view, nil
}

func (s *cartService) product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *cartService) products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	byID := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func (s *cartService) save(ctx context.Context, userID uuid.UUID, cart []model.CartItem) error {
	if err := s.userRepo.UpdateCart(ctx, userID, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func guestItemIDs(items []model.GuestCartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
