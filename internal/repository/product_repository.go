package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/database"
	"catalog-api/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// productWithCategoryColumns is the scan order for eager reads that join the
// category relation.
const productWithCategoryColumns = "p.id, p.name, p.description, p.price, p.stock, p.is_active, p.category_id, p.created_at, p.updated_at, " +
	"c.id, c.name, c.description, c.created_at, c.updated_at"

// ProductRepository defines the interface for product data access. Eager
// loading of the category relation is always an explicit parameter or an
// explicitly eager query, never implicit.
type ProductRepository interface {
	Repository[domain.Product]
	FindByID(ctx context.Context, id int64, includeCategory bool) (*domain.Product, error)
	List(ctx context.Context, includeCategory bool) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error)
	ListActive(ctx context.Context) ([]*domain.Product, error)
	ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error)
	ExistsByCategory(ctx context.Context, categoryID int64) (bool, error)
}

type productRepository struct {
	*Store[domain.Product]
	db      *sql.DB
	dialect database.Dialect
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB, dialect database.Dialect) ProductRepository {
	return &productRepository{
		Store:   NewStore(db, dialect, productMapper{}, ErrProductNotFound),
		db:      db,
		dialect: dialect,
	}
}

// FindByID retrieves a product by id; includeCategory eagerly resolves the
// category relation in the same query.
func (r *productRepository) FindByID(ctx context.Context, id int64, includeCategory bool) (*domain.Product, error) {
	if !includeCategory {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?
	`, productWithCategoryColumns)

	product, err := scanProductWithCategory(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by id: %w", err)
	}

	return product, nil
}

// List retrieves all products ordered by id; includeCategory eagerly resolves
// each product's category.
func (r *productRepository) List(ctx context.Context, includeCategory bool) ([]*domain.Product, error) {
	if !includeCategory {
		return r.GetAll(ctx)
	}
	return r.listWithCategory(ctx, "", nil)
}

// ListByCategory retrieves all products in a category, with the category
// relation eagerly loaded.
func (r *productRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	return r.listWithCategory(ctx, "p.category_id = ?", []any{categoryID})
}

// ListActive retrieves all active products, with the category relation
// eagerly loaded.
func (r *productRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	return r.listWithCategory(ctx, "p.is_active = ?", []any{true})
}

// ListByPriceRange retrieves products with minPrice <= price <= maxPrice,
// both boundaries inclusive, with the category relation eagerly loaded.
// Argument validation is the caller's responsibility.
func (r *productRepository) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error) {
	return r.listWithCategory(ctx, "p.price >= ? AND p.price <= ?", []any{minPrice, maxPrice})
}

// ExistsByCategory reports whether any product references the category.
func (r *productRepository) ExistsByCategory(ctx context.Context, categoryID int64) (bool, error) {
	query := "SELECT COUNT(*) FROM products WHERE category_id = ?"

	var count int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), categoryID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count products by category: %w", err)
	}

	return count > 0, nil
}

func (r *productRepository) listWithCategory(ctx context.Context, where string, args []any) ([]*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
	`, productWithCategoryColumns)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY p.id"

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProductWithCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProductWithCategory(row RowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		catID          sql.NullInt64
		catName        sql.NullString
		catDescription sql.NullString
		catCreatedAt   sql.NullTime
		catUpdatedAt   sql.NullTime
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.IsActive,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
		&catID,
		&catName,
		&catDescription,
		&catCreatedAt,
		&catUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if catID.Valid {
		category := &domain.Category{
			ID:          catID.Int64,
			Name:        catName.String,
			Description: catDescription.String,
			CreatedAt:   catCreatedAt.Time,
		}
		if catUpdatedAt.Valid {
			t := catUpdatedAt.Time
			category.UpdatedAt = &t
		}
		product.Category = category
	}

	return product, nil
}

// productMapper maps domain.Product onto the products table for the generic
// store.
type productMapper struct{}

func (productMapper) Table() string { return "products" }

func (productMapper) SelectColumns() []string {
	return []string{"id", "name", "description", "price", "stock", "is_active", "category_id", "created_at", "updated_at"}
}

func (productMapper) Scan(row RowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.IsActive,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (productMapper) InsertColumns() []string {
	return []string{"name", "description", "price", "stock", "is_active", "category_id", "created_at", "updated_at"}
}

func (productMapper) InsertArgs(p *domain.Product) []any {
	return []any{p.Name, p.Description, p.Price, p.Stock, p.IsActive, p.CategoryID, p.CreatedAt, p.UpdatedAt}
}

func (productMapper) UpdateColumns() []string {
	return []string{"name", "description", "price", "stock", "is_active", "category_id", "updated_at"}
}

func (productMapper) UpdateArgs(p *domain.Product) []any {
	return []any{p.Name, p.Description, p.Price, p.Stock, p.IsActive, p.CategoryID, p.UpdatedAt}
}

func (productMapper) ID(p *domain.Product) int64 { return p.ID }

func (productMapper) SetID(p *domain.Product, id int64) { p.ID = id }
