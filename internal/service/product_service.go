package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrPriceScale        = errors.New("price must have at most 2 decimal places")
	ErrInvalidPriceRange = errors.New("invalid price range")
)

// ProductInput carries the validated fields for a product create or replace.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	CategoryID  int64
}

// ProductService defines the interface for product business logic
type ProductService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error)
	ListActive(ctx context.Context) ([]*domain.Product, error)
	ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in ProductInput) error
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// List retrieves all products with their categories resolved.
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get retrieves a single product with its category resolved.
func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ListByCategory retrieves all products in a category. An unknown category
// yields an empty list, not an error.
func (s *productService) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	products, err := s.productRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

// ListActive retrieves all active products.
func (s *productService) ListActive(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

// ListByPriceRange retrieves products priced within [minPrice, maxPrice],
// boundaries inclusive. Negative bounds or min > max are rejected before any
// repository call.
func (s *productService) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error) {
	if minPrice.IsNegative() || maxPrice.IsNegative() || minPrice.GreaterThan(maxPrice) {
		return nil, ErrInvalidPriceRange
	}

	products, err := s.productRepo.ListByPriceRange(ctx, minPrice, maxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by price range: %w", err)
	}
	return products, nil
}

// Create validates the input, stages the insert and commits it. The new
// product's id and created timestamp are assigned here.
func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.validateInput(ctx, in); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		CategoryID:  in.CategoryID,
		CreatedAt:   time.Now().UTC(),
	}

	s.productRepo.Add(product)
	if _, err := s.productRepo.SaveChanges(ctx); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update replaces all mutable fields of an existing product and refreshes
// its updated timestamp.
func (s *productService) Update(ctx context.Context, id int64, in ProductInput) error {
	exists, err := s.productRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return repository.ErrProductNotFound
	}

	if err := s.validateInput(ctx, in); err != nil {
		return err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		CategoryID:  in.CategoryID,
		UpdatedAt:   &now,
	}

	s.productRepo.Update(product)
	if _, err := s.productRepo.SaveChanges(ctx); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. A missing id is reported as not found rather
// than silently ignored.
func (s *productService) Delete(ctx context.Context, id int64) error {
	exists, err := s.productRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return repository.ErrProductNotFound
	}

	s.productRepo.Delete(id)
	if _, err := s.productRepo.SaveChanges(ctx); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// validateInput enforces the rules that cannot be expressed as struct tags:
// price sign and scale, and the categoryId referencing an existing category.
// It runs before anything is staged so invalid input never causes a partial
// write.
func (s *productService) validateInput(ctx context.Context, in ProductInput) error {
	if !in.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if in.Price.Exponent() < -2 && !in.Price.Equal(in.Price.Round(2)) {
		return ErrPriceScale
	}

	exists, err := s.categoryRepo.Exists(ctx, in.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !exists {
		return repository.ErrCategoryNotFound
	}

	return nil
}
