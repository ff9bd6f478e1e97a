package main

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	adminEmail    string
	adminPassword string
	reset         bool
}

func newSeedCommand() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample catalog, categories and an admin user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
				if err := database.Migrate(ctx, pool, logger); err != nil {
					return fmt.Errorf("failed to migrate database: %w", err)
				}
				return seed(ctx, pool, opts, logger)
			})
		},
	}

	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@storefront.local", "email of the seeded admin account")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "Admin123", "password of the seeded admin account")
	cmd.Flags().BoolVar(&opts.reset, "reset", true, "empty every table before seeding")

	return cmd
}

var seedCategories = []model.Category{
	{Name: "Skincare", Description: "Face and body skincare products"},
	{Name: "Makeup", Description: "Cosmetics and makeup products"},
	{Name: "Haircare", Description: "Hair care and styling products"},
	{Name: "Fragrance", Description: "Perfumes and scents"},
	{Name: "Bath & Body", Description: "Bath and body care products"},
	{Name: "Tools & Brushes", Description: "Beauty tools and brushes"},
}

var seedProducts = []model.Product{
	{
		Name: "Moisturizing Cream", Brand: "Neutrogena", Category: "Skincare",
		Description: "Deeply hydrating moisturizer for all skin types",
		Price:       2999, DiscountPrice: 2499, Stock: 100,
		IsFeatured: true, IsNew: true, Rating: 4.5, NumReviews: 45,
	},
	{
		Name: "Matte Lipstick", Brand: "Maybelline", Category: "Makeup",
		Description: "Long-lasting matte finish lipstick",
		Price:       1599, DiscountPrice: 1299, Stock: 150,
		IsFeatured: true, Rating: 4.7, NumReviews: 89,
		Variants: []model.Variant{
			{Name: "Red", Price: 1599, Stock: 50, SKU: "LIP001-RED"},
			{Name: "Pink", Price: 1599, Stock: 50, SKU: "LIP001-PINK"},
			{Name: "Nude", Price: 1599, Stock: 50, SKU: "LIP001-NUDE"},
		},
	},
	{
		Name: "Shampoo for Damaged Hair", Brand: "Pantene", Category: "Haircare",
		Description: "Repair and restore damaged hair",
		Price:       1299, Stock: 75, IsNew: true, Rating: 4.3, NumReviews: 34,
	},
	{
		Name: "Perfume Eau de Parfum", Brand: "Chanel", Category: "Fragrance",
		Description: "Luxury fragrance with floral notes",
		Price:       8999, DiscountPrice: 7999, Stock: 25,
		IsFeatured: true, Rating: 4.8, NumReviews: 120,
	},
	{
		Name: "Body Lotion", Brand: "Nivea", Category: "Bath & Body",
		Description: "Nourishing lotion for soft skin",
		Price:       999, Stock: 200, Rating: 4.4, NumReviews: 67,
	},
}

func seed(ctx context.Context, pool *pgxpool.Pool, opts seedOptions, logger zerolog.Logger) error {
	if opts.reset {
		if _, err := pool.Exec(ctx, "TRUNCATE TABLE orders, categories, products, users RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("failed to reset tables: %w", err)
		}
		logger.Info().Msg("existing data destroyed")
	}

	now := time.Now().UTC()
	categories := repository.NewCategoryRepository(pool, logger)
	products := repository.NewProductRepository(pool, logger)
	users := repository.NewUserRepository(pool, logger)

	for i, c := range seedCategories {
		c.ID = uuid.New()
		c.Slug = model.Slugify(c.Name)
		c.SortOrder = i
		c.IsActive = true
		c.CreatedAt, c.UpdatedAt = now, now
		if err := categories.Create(ctx, &c); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}

	for _, p := range seedProducts {
		p.ID = uuid.New()
		p.CreatedAt, p.UpdatedAt = now, now
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", p.Name, err)
		}
	}

	hash, err := auth.HashPassword(opts.adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &model.User{
		ID:           uuid.New(),
		Name:         "Admin User",
		Email:        opts.adminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		IsVerified:   true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	logger.Info().
		Int("categories", len(seedCategories)).
		Int("products", len(seedProducts)).
		Str("admin", admin.Email).
		Msg("data imported")
	return nil
}
