package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Listing sizes.
const (
	ProductPageSize    = 12
	MaxProductPageSize = 100
	TopProductsLimit   = 5
	FeaturedLimit      = 8
	NewArrivalsLimit   = 8
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, orderRepo repository.OrderRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns a filtered, sorted page of products.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = ProductPageSize
	}
	if filter.PageSize > MaxProductPageSize {
		filter.PageSize = MaxProductPageSize
	}
	filter.Page = normalisePage(filter.Page)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Str("keyword", filter.Keyword).
			Str("category", filter.Category).
			Int("page", filter.Page).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Int("page", filter.Page).
		Msg("retrieved products")

	return &model.ProductPage{
		Products: products,
		Page:     filter.Page,
		Pages:    model.PageCount(total, filter.PageSize),
		Total:    total,
	}, nil
}

// Get retrieves a single product by ID.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	now := s.now()
	product := &model.Product{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	applyProductRequest(product, req, now)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Update replaces the editable fields. Sales counters and reviews are kept.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(product, req, s.now())

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")
	return product, nil
}

func applyProductRequest(p *model.Product, req *model.ProductRequest, now time.Time) {
	p.Name = strings.TrimSpace(req.Name)
	p.Brand = strings.TrimSpace(req.Brand)
	p.Category = strings.TrimSpace(req.Category)
	p.SubCategory = req.SubCategory
	p.Description = req.Description
	p.Price = req.Price
	p.DiscountPrice = req.DiscountPrice
	p.Images = req.Images
	p.Tags = req.Tags
	p.Variants = req.Variants
	p.Stock = req.Stock
	p.IsFeatured = req.IsFeatured
	p.IsNew = req.IsNew
	p.UpdatedAt = now
	p.Normalise()
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// AddReview records a review from user. Reviewers who received the product
// in a delivered order are flagged as verified purchasers.
func (s *productService) AddReview(ctx context.Context, productID uuid.UUID, user *model.User, req *model.ReviewRequest) (*model.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	verified, err := s.hasReceived(ctx, user.ID, productID)
	if err != nil {
		return nil, err
	}

	review := model.Review{
		ID:               uuid.New(),
		UserID:           user.ID,
		Name:             user.Name,
		Rating:           req.Rating,
		Comment:          strings.TrimSpace(req.Comment),
		VerifiedPurchase: verified,
		CreatedAt:        s.now(),
	}
	if err := product.AddReview(review); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveReviews(ctx, product); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("user_id", user.ID.String()).
		Int("rating", req.Rating).
		Bool("verified", verified).
		Msg("review added")
	return product, nil
}

func (s *productService) hasReceived(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	for _, o := range orders {
		if o.Status != model.OrderStatusDelivered && !o.IsDelivered {
			continue
		}
		for _, item := range o.OrderItems {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *productService) Top(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.Top(ctx, TopProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}

func (s *productService) Featured(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get featured products: %w", err)
	}
	return products, nil
}

func (s *productService) New(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.Newest(ctx, NewArrivalsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get new products: %w", err)
	}
	return products, nil
}

func (s *productService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.productRepo.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get brands: %w", err)
	}
	return brands, nil
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *productService) ByCategory(ctx context.Context, category string, page int) (*model.ProductPage, error) {
	return s.List(ctx, model.ProductFilter{Category: category, Page: page, PageSize: ProductPageSize})
}
