package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
)

var (
	ErrCategoryInUse = errors.New("category has referencing products")
)

// CategoryInput carries the validated fields for a category create or
// replace.
type CategoryInput struct {
	Name        string
	Description string
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, in CategoryInput) error
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// List retrieves all categories annotated with their product counts.
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.ListWithProductCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get retrieves a single category with its product list eagerly loaded.
func (s *categoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Create stages and commits a new category.
func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	category := &domain.Category{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}

	s.categoryRepo.Add(category)
	if _, err := s.categoryRepo.SaveChanges(ctx); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// Update replaces the mutable fields of an existing category and refreshes
// its updated timestamp.
func (s *categoryService) Update(ctx context.Context, id int64, in CategoryInput) error {
	exists, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !exists {
		return repository.ErrCategoryNotFound
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		UpdatedAt:   &now,
	}

	s.categoryRepo.Update(category)
	if _, err := s.categoryRepo.SaveChanges(ctx); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	return nil
}

// Delete removes a category. Deletion is restricted: a category that still
// has referencing products is rejected, never cascaded.
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	exists, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !exists {
		return repository.ErrCategoryNotFound
	}

	inUse, err := s.productRepo.ExistsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category references: %w", err)
	}
	if inUse {
		return ErrCategoryInUse
	}

	s.categoryRepo.Delete(id)
	if _, err := s.categoryRepo.SaveChanges(ctx); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return nil
}
