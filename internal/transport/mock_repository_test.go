package transport

import (
	"context"
	"errors"
	"sort"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/shopspring/decimal"
)

// mockCatalog is the shared in-memory backing for both mock repositories, so
// category references behave like a real foreign key.
type mockCatalog struct {
	nextProductID  int64
	nextCategoryID int64
	products       map[int64]*domain.Product
	categories     map[int64]*domain.Category
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		products:   make(map[int64]*domain.Product),
		categories: make(map[int64]*domain.Category),
	}
}

// snapshot copies the catalog state so a failed changeset can be undone the
// way a rolled-back transaction would be.
func (c *mockCatalog) snapshot() mockCatalog {
	products := make(map[int64]*domain.Product, len(c.products))
	for id, p := range c.products {
		products[id] = cloneProduct(p)
	}
	categories := make(map[int64]*domain.Category, len(c.categories))
	for id, cat := range c.categories {
		categories[id] = cloneCategory(cat)
	}
	return mockCatalog{
		nextProductID:  c.nextProductID,
		nextCategoryID: c.nextCategoryID,
		products:       products,
		categories:     categories,
	}
}

func (c *mockCatalog) restore(snap mockCatalog) {
	*c = snap
}

func (c *mockCatalog) sortedProducts() []*domain.Product {
	products := make([]*domain.Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	clone.Category = nil
	return &clone
}

func cloneCategory(c *domain.Category) *domain.Category {
	clone := *c
	clone.Products = nil
	clone.ProductCount = 0
	return &clone
}

// mockProductRepository implements repository.ProductRepository in memory
// with the same staged changeset semantics as the SQL-backed store.
type mockProductRepository struct {
	catalog *mockCatalog
	pending []func() (int64, error)
}

func newMockProductRepository(catalog *mockCatalog) *mockProductRepository {
	return &mockProductRepository{catalog: catalog}
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.catalog.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *mockProductRepository) GetAll(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.catalog.sortedProducts() {
		products = append(products, cloneProduct(p))
	}
	return products, nil
}

func (m *mockProductRepository) Find(ctx context.Context, pred repository.Predicate) ([]*domain.Product, error) {
	return m.GetAll(ctx)
}

func (m *mockProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.catalog.products[id]
	return ok, nil
}

func (m *mockProductRepository) Add(p *domain.Product) {
	m.pending = append(m.pending, func() (int64, error) {
		if _, ok := m.catalog.categories[p.CategoryID]; !ok {
			return 0, errors.New("foreign key violation: category does not exist")
		}
		m.catalog.nextProductID++
		p.ID = m.catalog.nextProductID
		m.catalog.products[p.ID] = cloneProduct(p)
		return 1, nil
	})
}

func (m *mockProductRepository) Update(p *domain.Product) {
	m.pending = append(m.pending, func() (int64, error) {
		existing, ok := m.catalog.products[p.ID]
		if !ok {
			return 0, nil
		}
		if _, ok := m.catalog.categories[p.CategoryID]; !ok {
			return 0, errors.New("foreign key violation: category does not exist")
		}
		updated := cloneProduct(p)
		updated.CreatedAt = existing.CreatedAt
		m.catalog.products[p.ID] = updated
		return 1, nil
	})
}

func (m *mockProductRepository) Delete(id int64) {
	m.pending = append(m.pending, func() (int64, error) {
		if _, ok := m.catalog.products[id]; !ok {
			return 0, nil
		}
		delete(m.catalog.products, id)
		return 1, nil
	})
}

// SaveChanges mirrors the SQL store: affected rows are summed per operation,
// and a failure rolls the catalog back and discards the staged changeset.
func (m *mockProductRepository) SaveChanges(ctx context.Context) (int64, error) {
	staged := m.pending
	m.pending = nil

	snap := m.catalog.snapshot()
	var affected int64
	for _, apply := range staged {
		n, err := apply()
		if err != nil {
			m.catalog.restore(snap)
			return 0, err
		}
		affected += n
	}
	return affected, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64, includeCategory bool) (*domain.Product, error) {
	p, ok := m.catalog.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := cloneProduct(p)
	if includeCategory {
		if category, ok := m.catalog.categories[p.CategoryID]; ok {
			clone.Category = cloneCategory(category)
		}
	}
	return clone, nil
}

func (m *mockProductRepository) List(ctx context.Context, includeCategory bool) ([]*domain.Product, error) {
	return m.listWhere(includeCategory, func(*domain.Product) bool { return true })
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	return m.listWhere(true, func(p *domain.Product) bool { return p.CategoryID == categoryID })
}

func (m *mockProductRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	return m.listWhere(true, func(p *domain.Product) bool { return p.IsActive })
}

func (m *mockProductRepository) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*domain.Product, error) {
	return m.listWhere(true, func(p *domain.Product) bool {
		return p.Price.GreaterThanOrEqual(minPrice) && p.Price.LessThanOrEqual(maxPrice)
	})
}

func (m *mockProductRepository) ExistsByCategory(ctx context.Context, categoryID int64) (bool, error) {
	for _, p := range m.catalog.products {
		if p.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepository) listWhere(includeCategory bool, match func(*domain.Product) bool) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.catalog.sortedProducts() {
		if !match(p) {
			continue
		}
		clone := cloneProduct(p)
		if includeCategory {
			if category, ok := m.catalog.categories[p.CategoryID]; ok {
				clone.Category = cloneCategory(category)
			}
		}
		products = append(products, clone)
	}
	return products, nil
}

// mockCategoryRepository implements repository.CategoryRepository in memory.
type mockCategoryRepository struct {
	catalog *mockCatalog
	pending []func() (int64, error)
}

func newMockCategoryRepository(catalog *mockCatalog) *mockCategoryRepository {
	return &mockCategoryRepository{catalog: catalog}
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, ok := m.catalog.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return cloneCategory(c), nil
}

func (m *mockCategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.catalog.categories {
		categories = append(categories, cloneCategory(c))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (m *mockCategoryRepository) Find(ctx context.Context, pred repository.Predicate) ([]*domain.Category, error) {
	return m.GetAll(ctx)
}

func (m *mockCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.catalog.categories[id]
	return ok, nil
}

func (m *mockCategoryRepository) Add(c *domain.Category) {
	m.pending = append(m.pending, func() (int64, error) {
		m.catalog.nextCategoryID++
		c.ID = m.catalog.nextCategoryID
		m.catalog.categories[c.ID] = cloneCategory(c)
		return 1, nil
	})
}

func (m *mockCategoryRepository) Update(c *domain.Category) {
	m.pending = append(m.pending, func() (int64, error) {
		existing, ok := m.catalog.categories[c.ID]
		if !ok {
			return 0, nil
		}
		updated := cloneCategory(c)
		updated.CreatedAt = existing.CreatedAt
		m.catalog.categories[c.ID] = updated
		return 1, nil
	})
}

func (m *mockCategoryRepository) Delete(id int64) {
	m.pending = append(m.pending, func() (int64, error) {
		if _, ok := m.catalog.categories[id]; !ok {
			return 0, nil
		}
		for _, p := range m.catalog.products {
			if p.CategoryID == id {
				return 0, errors.New("foreign key violation: category still referenced")
			}
		}
		delete(m.catalog.categories, id)
		return 1, nil
	})
}

// SaveChanges mirrors the SQL store: affected rows are summed per operation,
// and a failure rolls the catalog back and discards the staged changeset.
func (m *mockCategoryRepository) SaveChanges(ctx context.Context) (int64, error) {
	staged := m.pending
	m.pending = nil

	snap := m.catalog.snapshot()
	var affected int64
	for _, apply := range staged {
		n, err := apply()
		if err != nil {
			m.catalog.restore(snap)
			return 0, err
		}
		affected += n
	}
	return affected, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64, includeProducts bool) (*domain.Category, error) {
	c, ok := m.catalog.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	clone := cloneCategory(c)
	if includeProducts {
		products := []domain.Product{}
		for _, p := range m.catalog.sortedProducts() {
			if p.CategoryID == id {
				products = append(products, *cloneProduct(p))
			}
		}
		clone.Products = products
		clone.ProductCount = len(products)
	}
	return clone, nil
}

func (m *mockCategoryRepository) ListWithProductCounts(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for id, c := range m.catalog.categories {
		clone := cloneCategory(c)
		for _, p := range m.catalog.products {
			if p.CategoryID == id {
				clone.ProductCount++
			}
		}
		categories = append(categories, clone)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}
