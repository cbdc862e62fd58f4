package handlers

import (
	"net/http"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves categories and products.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(s services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: s}
}

// --- Categories ---

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if !bindJSON(c, &req, "CreateCategory") {
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Create category")
		return
	}
	utils.RespondOK(c, http.StatusCreated, category)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "List categories")
		return
	}
	utils.RespondOK(c, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Get category")
		return
	}
	utils.RespondOK(c, http.StatusOK, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCategoryRequest
	if !bindJSON(c, &req, "UpdateCategory") {
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Update category")
		return
	}
	utils.RespondOK(c, http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Delete category")
		return
	}
	utils.RespondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// --- Products ---

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req, "CreateProduct") {
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Create product")
		return
	}
	utils.RespondOK(c, http.StatusCreated, product)
}

// ListProducts supports category_id, status, featured, search, include_inactive
// and pagination query parameters.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filters models.ProductFilters
	var ok bool
	if filters.CategoryID, ok = optionalInt64Query(c, "category_id"); !ok {
		return
	}
	filters.Status = optionalQuery(c, "status")
	filters.Search = optionalQuery(c, "search")

	featured, err := utils.OptionalBool(c.Query("featured"))
	if err != nil {
		utils.RespondValidationFailed(c, "featured must be true or false")
		return
	}
	filters.Featured = featured
	if inactive, err := utils.OptionalBool(c.Query("include_inactive")); err != nil {
		utils.RespondValidationFailed(c, "include_inactive must be true or false")
		return
	} else if inactive != nil {
		filters.IncludeInactive = *inactive
	}
	if filters.Page, filters.PageSize, ok = parsePagination(c); !ok {
		return
	}

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "List products")
		return
	}
	page, pageSize := services.NormalizePage(filters.Page, filters.PageSize)
	utils.RespondPage(c, products, total, page, pageSize)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Get product")
		return
	}
	utils.RespondOK(c, http.StatusOK, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if !bindJSON(c, &req, "UpdateProduct") {
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Update product")
		return
	}
	utils.RespondOK(c, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Delete product")
		return
	}
	utils.RespondOK(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

// UploadProductImage accepts a multipart form with the file in the "image" field.
func (h *CatalogHandler) UploadProductImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		utils.RespondValidationFailed(c, "multipart field 'image' is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondServiceError(c, err, "Open uploaded image")
		return
	}
	defer file.Close()

	product, err := h.catalogService.UploadProductImage(c.Request.Context(), id, services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondServiceError(c, err, "Upload product image")
		return
	}
	utils.RespondOK(c, http.StatusOK, product)
}
