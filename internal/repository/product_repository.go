package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `
	id, name, brand, category, sub_category, description, price, discount_price,
	images, tags, variants, stock, sold, rating, num_reviews, reviews,
	is_featured, is_new, created_at, updated_at`

var productSorts = map[string]string{
	model.SortNewest:    "created_at DESC",
	model.SortPriceAsc:  "price ASC, created_at DESC",
	model.SortPriceDesc: "price DESC, created_at DESC",
	model.SortRating:    "rating DESC, num_reviews DESC",
	model.SortPopular:   "sold DESC, created_at DESC",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List returns the products matching filter and the total match count.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	where, args := buildProductFilter(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM products" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy, ok := productSorts[filter.Sort]
	if !ok {
		orderBy = productSorts[model.SortNewest]
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy, len(args)-1, len(args))

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// buildProductFilter turns a filter into a WHERE clause and its arguments.
func buildProductFilter(filter model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		add("(name ILIKE $%[1]d OR brand ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+kw+"%")
	}
	if filter.Category != "" {
		add("LOWER(category) = LOWER($%d)", filter.Category)
	}
	if len(filter.Brands) > 0 {
		add("brand = ANY($%d)", filter.Brands)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		add("rating >= $%d", *filter.MinRating)
	}
	if filter.Featured != nil {
		add("is_featured = $%d", *filter.Featured)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.getOne(ctx, r.pool, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
}

// GetForUpdate reads a product and locks its row until tx ends.
func (r *productRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error) {
	return r.getOne(ctx, tx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *productRepository) getOne(ctx context.Context, q querier, query string, id uuid.UUID) (*model.Product, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to scan product")
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

// GetByIDs retrieves the existing products among ids.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1)", ids)
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	p.Normalise()

	query := `
		INSERT INTO products (
			id, name, brand, category, sub_category, description, price, discount_price,
			images, tags, variants, stock, sold, rating, num_reviews, reviews,
			is_featured, is_new, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Brand, p.Category, p.SubCategory, p.Description, p.Price, p.DiscountPrice,
		p.Images, p.Tags, p.Variants, p.Stock, p.Sold, p.Rating, p.NumReviews, p.Reviews,
		p.IsFeatured, p.IsNew, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID.String()).Msg("product created successfully")
	return nil
}

// Update replaces the editable fields of a product.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	p.Normalise()

	query := `
		UPDATE products SET
			name = $2, brand = $3, category = $4, sub_category = $5, description = $6,
			price = $7, discount_price = $8, images = $9, tags = $10, variants = $11,
			stock = $12, is_featured = $13, is_new = $14, updated_at = $15
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Brand, p.Category, p.SubCategory, p.Description,
		p.Price, p.DiscountPrice, p.Images, p.Tags, p.Variants,
		p.Stock, p.IsFeatured, p.IsNew, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// SaveReviews stores the review list with its aggregate rating.
func (r *productRepository) SaveReviews(ctx context.Context, p *model.Product) error {
	p.Normalise()

	query := `
		UPDATE products SET reviews = $2, rating = $3, num_reviews = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, p.ID, p.Reviews, p.Rating, p.NumReviews)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to save reviews")
		return fmt.Errorf("failed to save reviews: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Top returns the best rated products.
func (r *productRepository) Top(ctx context.Context, limit int) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY rating DESC, num_reviews DESC LIMIT $1", limit)
}

// Featured returns products flagged as featured, newest first.
func (r *productRepository) Featured(ctx context.Context, limit int) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE is_featured ORDER BY created_at DESC LIMIT $1", limit)
}

// Newest returns the most recently added products.
func (r *productRepository) Newest(ctx context.Context, limit int) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY is_new DESC, created_at DESC LIMIT $1", limit)
}

// Brands returns the distinct brand names.
func (r *productRepository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "brand")
}

// Categories returns the distinct category names used by products.
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *productRepository) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %[1]s FROM products WHERE %[1]s <> '' ORDER BY %[1]s", column)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Str("column", column).Msg("failed to query distinct values")
		return nil, fmt.Errorf("failed to query %s values: %w", column, err)
	}

	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s values: %w", column, err)
	}
	return values, nil
}

// CountByCategory counts products in a category, ignoring case.
func (r *productRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE LOWER(category) = LOWER($1)", category).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Str("category", category).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// AdjustStock adds delta to stock and subtracts it from sold.
func (r *productRepository) AdjustStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error {
	query := `
		UPDATE products SET stock = stock + $2, sold = sold - $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, id, delta)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Int("delta", delta).Msg("failed to adjust stock")
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().Str("product_id", id.String()).Int("delta", delta).Msg("stock adjusted")
	return nil
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan products")
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, nil
}
