package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// jsonPrice serializes a decimal amount as a bare JSON number. The decimal
// package quotes by default; the unquoted format applies to response prices
// only, not to every decimal in the process.
type jsonPrice struct {
	decimal.Decimal
}

func (p jsonPrice) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"isActive"`
	CategoryID  int64           `json:"categoryId" validate:"required,gt=0"`
}

// UpdateProductRequest represents the product replace payload
type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"isActive"`
	CategoryID  int64           `json:"categoryId" validate:"required,gt=0"`
}

// ProductResponse represents a product at the API boundary. The category
// relation is flattened to its name.
type ProductResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        jsonPrice  `json:"price"`
	Stock        int        `json:"stock"`
	IsActive     bool       `json:"isActive"`
	CategoryID   int64      `json:"categoryId"`
	CategoryName *string    `json:"categoryName"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       jsonPrice{p.Price},
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		name := p.Category.Name
		resp.CategoryName = &name
	}
	return resp
}

func newProductResponseList(products []*domain.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, newProductResponse(p))
	}
	return responses
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/active", h.ListActive)
		r.Get("/price-range", h.ListByPriceRange)
		r.Get("/category/{categoryID}", h.ListByCategory)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponseList(products))
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("product with id %d not found", id))
			return
		}
		h.logger.Error("Failed to get product", zap.Int64("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// ListByCategory handles GET /api/products/category/{categoryID}
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseIDParam(w, r, "categoryID")
	if !ok {
		return
	}

	products, err := h.productService.ListByCategory(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("Failed to list products by category", zap.Int64("category_id", categoryID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponseList(products))
}

// ListActive handles GET /api/products/active
func (h *ProductHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListActive(r.Context())
	if err != nil {
		h.logger.Error("Failed to list active products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponseList(products))
}

// ListByPriceRange handles GET /api/products/price-range?minPrice=&maxPrice=
func (h *ProductHandler) ListByPriceRange(w http.ResponseWriter, r *http.Request) {
	minPrice, err := decimal.NewFromString(r.URL.Query().Get("minPrice"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "minPrice must be a valid number")
		return
	}
	maxPrice, err := decimal.NewFromString(r.URL.Query().Get("maxPrice"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "maxPrice must be a valid number")
		return
	}

	products, err := h.productService.ListByPriceRange(r.Context(), minPrice, maxPrice)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPriceRange) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid price range: bounds must be non-negative and minPrice must not exceed maxPrice")
			return
		}
		h.logger.Error("Failed to list products by price range", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponseList(products))
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), productInput(req.Name, req.Description, req.Price, req.Stock, req.IsActive, req.CategoryID))
	if err != nil {
		h.respondProductWriteError(w, err)
		return
	}

	h.logger.Info("Product created", zap.Int64("id", product.ID))
	w.Header().Set("Location", fmt.Sprintf("/api/products/%d", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.productService.Update(r.Context(), id, productInput(req.Name, req.Description, req.Price, req.Stock, req.IsActive, req.CategoryID))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("product with id %d not found", id))
			return
		}
		h.respondProductWriteError(w, err)
		return
	}

	h.logger.Info("Product updated", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("product with id %d not found", id))
			return
		}
		h.logger.Error("Failed to delete product", zap.Int64("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// respondProductWriteError maps create/replace failures that are the
// client's fault to 400 responses.
func (h *ProductHandler) respondProductWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "categoryId does not reference an existing category")
	case errors.Is(err, service.ErrInvalidPrice):
		middleware.RespondWithError(w, http.StatusBadRequest, "price must be greater than zero")
	case errors.Is(err, service.ErrPriceScale):
		middleware.RespondWithError(w, http.StatusBadRequest, "price must have at most 2 decimal places")
	default:
		h.logger.Error("Failed to write product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to save product")
	}
}

func productInput(name, description string, price decimal.Decimal, stock int, isActive *bool, categoryID int64) service.ProductInput {
	// isActive defaults to true when omitted.
	active := true
	if isActive != nil {
		active = *isActive
	}

	return service.ProductInput{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		IsActive:    active,
		CategoryID:  categoryID,
	}
}

// parseIDParam parses an integer path parameter, responding with 400 on
// malformed input.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
