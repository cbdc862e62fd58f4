package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/internal/storage"
	"cafe_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryInUse         = errors.New("category is in use by one or more products")
	ErrCategoryNameExists    = errors.New("category name already exists")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductInActiveOrder  = errors.New("product is part of an active order")
	ErrCatalogValidation     = errors.New("catalog data validation error")
	ErrImageStoreUnavailable = errors.New("image storage is not configured")
	ErrInvalidImage          = errors.New("invalid image")
)

// --- Catalog DTOs ---

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateProductRequest struct {
	CategoryID    int64           `json:"category_id" binding:"required,gt=0"`
	Name          string          `json:"name" binding:"required"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	ImageURL      *string         `json:"image_url"`
	PointsAwarded int             `json:"points_awarded" binding:"gte=0"`
	Status        string          `json:"status" binding:"omitempty,product_status"`
	Featured      bool            `json:"featured"`
}

type UpdateProductRequest struct {
	CategoryID    *int64           `json:"category_id" binding:"omitempty,gt=0"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Cost          *decimal.Decimal `json:"cost"`
	ImageURL      *string          `json:"image_url"`
	PointsAwarded *int             `json:"points_awarded" binding:"omitempty,gte=0"`
	Status        *string          `json:"status" binding:"omitempty,product_status"`
	Featured      *bool            `json:"featured"`
	IsActive      *bool            `json:"is_active"`
}

// ImageUpload is a product image received from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists product images.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, publicURL string) (bool, error)
}

// CategoryCache is the read-through cache in front of the category list.
type CategoryCache interface {
	Get(ctx context.Context) ([]models.Category, bool)
	Set(ctx context.Context, categories []models.Category)
	Invalidate(ctx context.Context)
}

// --- CatalogService Interface ---
type CatalogService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, req UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	UploadProductImage(ctx context.Context, id int64, upload ImageUpload) (*models.Product, error)
}

type catalogService struct {
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
	cache        CategoryCache
	images       ImageStore
	db           *sql.DB
}

// NewCatalogService creates a new instance of CatalogService. images may be nil
// when no storage is configured.
func NewCatalogService(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository,
	cache CategoryCache, images ImageStore, db *sql.DB) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
		images:       images,
		db:           db,
	}
}

// --- Categories ---

func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", ErrCatalogValidation)
	}
	category := &models.Category{Name: name, Description: utils.TrimPtr(req.Description)}
	if _, err := s.categoryRepo.CreateCategory(ctx, s.db, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.cache.Invalidate(ctx)
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// ListCategories serves the category list from the cache, loading it from the
// database on a miss.
func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if categories, ok := s.cache.Get(ctx); ok {
		return categories, nil
	}
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	s.cache.Set(ctx, categories)
	return categories, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int64, req UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category name cannot be empty", ErrCatalogValidation)
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = utils.TrimPtr(req.Description)
	}

	if err := s.categoryRepo.UpdateCategory(ctx, s.db, category); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrCategoryNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.cache.Invalidate(ctx)
	return category, nil
}

// DeleteCategory removes a category that no product references.
func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.categoryRepo.CountProductsInCategory(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check category usage: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d product(s) reference it", ErrCategoryInUse, count)
		}
		if err := s.categoryRepo.DeleteCategory(ctx, tx, id); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return ErrCategoryNotFound
			case errors.Is(err, repositories.ErrInUse):
				return ErrCategoryInUse
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// --- Products ---

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name cannot be empty", ErrCatalogValidation)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: category_id is required", ErrCatalogValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrCatalogValidation)
	}
	if p.Cost.IsNegative() {
		return fmt.Errorf("%w: cost cannot be negative", ErrCatalogValidation)
	}
	if p.PointsAwarded < 0 {
		return fmt.Errorf("%w: points_awarded cannot be negative", ErrCatalogValidation)
	}
	if !models.IsValidProductStatus(p.Status) {
		return fmt.Errorf("%w: invalid status %q", ErrCatalogValidation, p.Status)
	}
	return nil
}

func mapProductWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrCategoryNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	status := req.Status
	if status == "" {
		status = models.ProductStatusAvailable
	}
	product := &models.Product{
		CategoryID:    req.CategoryID,
		Name:          strings.TrimSpace(req.Name),
		Description:   utils.TrimPtr(req.Description),
		Price:         req.Price.Round(2),
		Cost:          req.Cost.Round(2),
		ImageURL:      utils.TrimPtr(req.ImageURL),
		PointsAwarded: req.PointsAwarded,
		Status:        status,
		Featured:      req.Featured,
		IsActive:      true,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	id, err := s.productRepo.CreateProduct(ctx, s.db, product)
	if err != nil {
		return nil, mapProductWriteError(err, "create product")
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidProductStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", ErrCatalogValidation, *filters.Status)
	}
	filters.Page, filters.PageSize = NormalizePage(filters.Page, filters.PageSize)
	products, total, err := s.productRepo.ListProducts(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies the changed fields. When the image URL changes the
// previous stored object is removed best-effort.
func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	previousImage := product.ImageURL

	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = utils.TrimPtr(req.Description)
	}
	if req.Price != nil {
		product.Price = req.Price.Round(2)
	}
	if req.Cost != nil {
		product.Cost = req.Cost.Round(2)
	}
	if req.ImageURL != nil {
		product.ImageURL = utils.TrimPtr(req.ImageURL)
	}
	if req.PointsAwarded != nil {
		product.PointsAwarded = *req.PointsAwarded
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateProduct(ctx, s.db, product); err != nil {
		return nil, mapProductWriteError(err, "update product")
	}
	if imageChanged(previousImage, product.ImageURL) {
		s.removeImage(ctx, id, previousImage)
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct retires a product. Products on pending or preparing orders stay
// untouched and the call fails with ErrProductInActiveOrder.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		open, err := s.productRepo.CountOpenOrderReferences(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check open orders: %w", err)
		}
		if open > 0 {
			return fmt.Errorf("%w: referenced by %d pending or preparing order(s)", ErrProductInActiveOrder, open)
		}
		if err := s.productRepo.Deactivate(ctx, tx, id); err != nil {
			return mapProductWriteError(err, "deactivate product")
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogInfo("Product deactivated", map[string]interface{}{"product_id": id})
	s.removeImage(ctx, id, product.ImageURL)
	return nil
}

// UploadProductImage stores a new image and swaps it into the product.
func (s *catalogService) UploadProductImage(ctx context.Context, id int64, upload ImageUpload) (*models.Product, error) {
	if s.images == nil {
		return nil, ErrImageStoreUnavailable
	}
	if err := storage.ValidateImage(upload.ContentType, upload.Size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	key := storage.ProductImageKey(id, upload.Filename, upload.ContentType)
	url, err := s.images.Upload(ctx, key, upload.Body, upload.Size, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}
	if err := s.productRepo.UpdateImageURL(ctx, s.db, id, &url); err != nil {
		s.removeImage(ctx, id, &url)
		return nil, mapProductWriteError(err, "update product image")
	}

	s.removeImage(ctx, id, product.ImageURL)
	return s.GetProduct(ctx, id)
}

func imageChanged(before, after *string) bool {
	if before == nil || *before == "" {
		return false
	}
	return after == nil || *after != *before
}

// removeImage deletes a stored product image. Failures are logged only.
func (s *catalogService) removeImage(ctx context.Context, productID int64, url *string) {
	if s.images == nil || url == nil || *url == "" {
		return
	}
	removed, err := s.images.Remove(ctx, *url)
	if err != nil {
		utils.LogWarn(err, "Failed to remove product image", map[string]interface{}{"product_id": productID, "url": *url})
		return
	}
	if removed {
		utils.LogDebug("Removed product image", map[string]interface{}{"product_id": productID, "url": *url})
	}
}
