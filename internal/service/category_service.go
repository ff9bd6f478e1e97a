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

// categoryService implements CategoryService.
type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	now          func() time.Time
	logger       zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		now:          time.Now,
		logger:       logger.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Tree(ctx context.Context) ([]*model.CategoryNode, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.BuildCategoryTree(categories), nil
}

// GetBySlug returns an active category. Inactive ones are reported missing.
func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil || !category.IsActive {
		return nil, model.ErrCategoryNotFound
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewValidationError("Category name is required")
	}

	now := s.now()
	category := &model.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        model.Slugify(name),
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentCategory,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Order != nil {
		category.SortOrder = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, model.ErrSlugTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info().Str("category_id", category.ID.String()).Str("slug", category.Slug).Msg("category created")
	return category, nil
}

// Update changes the given fields. A new name also renames the slug.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" && name != category.Name {
		category.Name = name
		category.Slug = model.Slugify(name)
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.Image != "" {
		category.Image = req.Image
	}
	if req.ParentCategory != nil {
		if *req.ParentCategory == id {
			return nil, model.NewValidationError("A category cannot be its own parent")
		}
		category.ParentID = req.ParentCategory
	}
	if req.Order != nil {
		category.SortOrder = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = s.now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, model.ErrSlugTaken) || errors.Is(err, model.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.logger.Info().Str("category_id", id.String()).Msg("category updated")
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.productRepo.CountByCategory(ctx, category.Name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if count > 0 {
		return model.NewDomainError(model.ErrCodeCategoryInUse,
			fmt.Sprintf("Cannot delete category with %d products, move products first", count))
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info().Str("category_id", id.String()).Msg("category deleted")
	return nil
}

func (s *categoryService) load(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}
	return category, nil
}
