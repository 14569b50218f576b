package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/database"
	"catalog-api/internal/domain"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Repository[domain.Category]
	FindByID(ctx context.Context, id int64, includeProducts bool) (*domain.Category, error)
	ListWithProductCounts(ctx context.Context) ([]*domain.Category, error)
}

type categoryRepository struct {
	*Store[domain.Category]
	db      *sql.DB
	dialect database.Dialect
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB, dialect database.Dialect) CategoryRepository {
	return &categoryRepository{
		Store:   NewStore(db, dialect, categoryMapper{}, ErrCategoryNotFound),
		db:      db,
		dialect: dialect,
	}
}

// FindByID retrieves a category by id; includeProducts eagerly loads the
// category's product list ordered by id.
func (r *categoryRepository) FindByID(ctx context.Context, id int64, includeProducts bool) (*domain.Category, error) {
	category, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeProducts {
		return category, nil
	}

	query := `
		SELECT id, name, description, price, stock, is_active, category_id, created_at, updated_at
		FROM products
		WHERE category_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category products: %w", err)
	}
	defer rows.Close()

	mapper := productMapper{}
	products := []domain.Product{}
	for rows.Next() {
		product, err := mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category product: %w", err)
		}
		products = append(products, *product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category products: %w", err)
	}

	category.Products = products
	category.ProductCount = len(products)
	return category, nil
}

// ListWithProductCounts retrieves all categories ordered by name, each
// annotated with its product count.
func (r *categoryRepository) ListWithProductCounts(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count
		FROM categories c
		ORDER BY c.name
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
			&category.ProductCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// categoryMapper maps domain.Category onto the categories table for the
// generic store.
type categoryMapper struct{}

func (categoryMapper) Table() string { return "categories" }

func (categoryMapper) SelectColumns() []string {
	return []string{"id", "name", "description", "created_at", "updated_at"}
}

func (categoryMapper) Scan(row RowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (categoryMapper) InsertColumns() []string {
	return []string{"name", "description", "created_at", "updated_at"}
}

func (categoryMapper) InsertArgs(c *domain.Category) []any {
	return []any{c.Name, c.Description, c.CreatedAt, c.UpdatedAt}
}

func (categoryMapper) UpdateColumns() []string {
	return []string{"name", "description", "updated_at"}
}

func (categoryMapper) UpdateArgs(c *domain.Category) []any {
	return []any{c.Name, c.Description, c.UpdatedAt}
}

func (categoryMapper) ID(c *domain.Category) int64 { return c.ID }

func (categoryMapper) SetID(c *domain.Category, id int64) { c.ID = id }
