package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database/dbtest"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// setupTestDB starts a migrated PostgreSQL container for one test.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return dbtest.Setup(t).Pool
}

func newTestUser(email string) *model.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestProduct(name string, price float64, stock int) *model.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Product{
		ID:          uuid.New(),
		Name:        name,
		Brand:       "Glow",
		Category:    "Skincare",
		Description: name + " description",
		Price:       price,
		Stock:       stock,
		Images:      []string{"/uploads/" + name + ".jpg"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func seedProduct(t *testing.T, repo ProductRepository, p *model.Product) *model.Product {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
