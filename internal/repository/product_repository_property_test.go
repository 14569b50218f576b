package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	cleanupCatalog(t)
	category := mustCreateCategory(t, "Creation Category")

	repo := NewProductRepository(testDB, testDialect)

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, price float64, stock int, isActive bool) bool {
			ctx := context.Background()

			product := &domain.Product{
				Name:        name,
				Description: description,
				Price:       decimal.NewFromFloat(price).Round(2),
				Stock:       stock,
				IsActive:    isActive,
				CategoryID:  category.ID,
				CreatedAt:   time.Now().UTC(),
			}

			repo.Add(product)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			if product.ID <= 0 {
				t.Logf("FAIL: Expected a positive assigned id, got %d", product.ID)
				return false
			}

			retrieved, err := repo.FindByID(ctx, product.ID, false)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != product.Name {
				t.Logf("FAIL: Name mismatch. Expected %s, got %s", product.Name, retrieved.Name)
				return false
			}

			if retrieved.Description != product.Description {
				t.Logf("FAIL: Description mismatch. Expected %s, got %s", product.Description, retrieved.Description)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price mismatch. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.Stock != product.Stock {
				t.Logf("FAIL: Stock mismatch. Expected %d, got %d", product.Stock, retrieved.Stock)
				return false
			}

			if retrieved.IsActive != product.IsActive {
				t.Logf("FAIL: IsActive mismatch. Expected %t, got %t", product.IsActive, retrieved.IsActive)
				return false
			}

			if retrieved.CategoryID != category.ID {
				t.Logf("FAIL: CategoryID mismatch. Expected %d, got %d", category.ID, retrieved.CategoryID)
				return false
			}

			if retrieved.CreatedAt.IsZero() {
				t.Logf("FAIL: CreatedAt is zero")
				return false
			}

			if retrieved.UpdatedAt != nil {
				t.Logf("FAIL: UpdatedAt should be nil before any update, got %v", retrieved.UpdatedAt)
				return false
			}

			repo.Delete(product.ID)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to clean up product: %v", err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),       // name
		gen.RegexMatch(`[A-Za-z0-9 .,!?]{10,200}`), // description
		gen.Float64Range(0.01, 9999.99),            // price
		gen.IntRange(0, 1000),                      // stock
		gen.Bool(),                                 // isActive
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProductUpdatesAreReflected(t *testing.T) {
	cleanupCatalog(t)
	category := mustCreateCategory(t, "Update Category")

	repo := NewProductRepository(testDB, testDialect)

	properties := gopter.NewProperties(nil)

	properties.Property("updating a product and retrieving it shows the updated values", prop.ForAll(
		func(name1 string, name2 string, price1 float64, price2 float64, stock1 int, stock2 int) bool {
			ctx := context.Background()

			product := &domain.Product{
				Name:        name1,
				Description: "initial description",
				Price:       decimal.NewFromFloat(price1).Round(2),
				Stock:       stock1,
				IsActive:    true,
				CategoryID:  category.ID,
				CreatedAt:   time.Now().UTC(),
			}

			repo.Add(product)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			now := time.Now().UTC()
			product.Name = name2
			product.Price = decimal.NewFromFloat(price2).Round(2)
			product.Stock = stock2
			product.IsActive = false
			product.UpdatedAt = &now

			repo.Update(product)
			affected, err := repo.SaveChanges(ctx)
			if err != nil {
				t.Logf("FAIL: Failed to update product: %v", err)
				return false
			}
			if affected != 1 {
				t.Logf("FAIL: Expected exactly one affected row, got %d", affected)
				return false
			}

			retrieved, err := repo.FindByID(ctx, product.ID, false)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != name2 {
				t.Logf("FAIL: Name not updated. Expected %s, got %s", name2, retrieved.Name)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price not updated. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.Stock != stock2 {
				t.Logf("FAIL: Stock not updated. Expected %d, got %d", stock2, retrieved.Stock)
				return false
			}

			if retrieved.IsActive {
				t.Logf("FAIL: IsActive not updated")
				return false
			}

			if retrieved.UpdatedAt == nil {
				t.Logf("FAIL: UpdatedAt should be set after update")
				return false
			}

			repo.Delete(product.ID)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to clean up product: %v", err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name1
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name2
		gen.Float64Range(0.01, 9999.99),      // price1
		gen.Float64Range(0.01, 9999.99),      // price2
		gen.IntRange(0, 1000),                // stock1
		gen.IntRange(0, 1000),                // stock2
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProductDeletionRemovesFromCatalog(t *testing.T) {
	cleanupCatalog(t)
	category := mustCreateCategory(t, "Deletion Category")

	repo := NewProductRepository(testDB, testDialect)

	properties := gopter.NewProperties(nil)

	properties.Property("deleting a product makes it not retrievable", prop.ForAll(
		func(name string, price float64, stock int) bool {
			ctx := context.Background()

			product := &domain.Product{
				Name:        name,
				Description: "to be deleted",
				Price:       decimal.NewFromFloat(price).Round(2),
				Stock:       stock,
				IsActive:    true,
				CategoryID:  category.ID,
				CreatedAt:   time.Now().UTC(),
			}

			repo.Add(product)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			exists, err := repo.Exists(ctx, product.ID)
			if err != nil || !exists {
				t.Logf("FAIL: Product should exist before deletion: %v", err)
				return false
			}

			repo.Delete(product.ID)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to delete product: %v", err)
				return false
			}

			_, err = repo.FindByID(ctx, product.ID, false)
			if !errors.Is(err, ErrProductNotFound) {
				t.Logf("FAIL: Expected ErrProductNotFound after deletion, got: %v", err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name
		gen.Float64Range(0.01, 9999.99),      // price
		gen.IntRange(0, 1000),                // stock
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PriceRangeBoundariesAreInclusive(t *testing.T) {
	cleanupCatalog(t)
	category := mustCreateCategory(t, "Range Category")

	repo := NewProductRepository(testDB, testDialect)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("products priced exactly at either boundary are included", prop.ForAll(
		func(low float64, span float64) bool {
			minPrice := decimal.NewFromFloat(low).Round(2)
			maxPrice := minPrice.Add(decimal.NewFromFloat(span).Round(2))

			atMin := &domain.Product{
				Name:       "At Min",
				Price:      minPrice,
				Stock:      1,
				IsActive:   true,
				CategoryID: category.ID,
				CreatedAt:  time.Now().UTC(),
			}
			atMax := &domain.Product{
				Name:       "At Max",
				Price:      maxPrice,
				Stock:      1,
				IsActive:   true,
				CategoryID: category.ID,
				CreatedAt:  time.Now().UTC(),
			}
			outside := &domain.Product{
				Name:       "Outside",
				Price:      maxPrice.Add(decimal.NewFromFloat(0.01)),
				Stock:      1,
				IsActive:   true,
				CategoryID: category.ID,
				CreatedAt:  time.Now().UTC(),
			}

			repo.Add(atMin)
			repo.Add(atMax)
			repo.Add(outside)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to create products: %v", err)
				return false
			}

			matched, err := repo.ListByPriceRange(ctx, minPrice, maxPrice)
			if err != nil {
				t.Logf("FAIL: Failed to list by price range: %v", err)
				return false
			}

			found := map[int64]bool{}
			for _, p := range matched {
				found[p.ID] = true
			}

			ok := found[atMin.ID] && found[atMax.ID] && !found[outside.ID]
			if !ok {
				t.Logf("FAIL: Boundary handling wrong for range [%s, %s]: %v", minPrice, maxPrice, found)
			}

			repo.Delete(atMin.ID)
			repo.Delete(atMax.ID)
			repo.Delete(outside.ID)
			if _, err := repo.SaveChanges(ctx); err != nil {
				t.Logf("FAIL: Failed to clean up products: %v", err)
				return false
			}

			return ok
		},
		gen.Float64Range(0.01, 500.00), // low
		gen.Float64Range(0.50, 500.00), // span
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
