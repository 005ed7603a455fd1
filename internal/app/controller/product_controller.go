package controller

import (
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	catalogService service.CatalogService
}

func NewProductController(catalogService service.CatalogService) *ProductController {
	return &ProductController{
		catalogService: catalogService,
	}
}

type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Slug        string          `json:"slug"`
	Active      *bool           `json:"active"`
	InStock     *bool           `json:"in_stock"`
	Tags        []string        `json:"tags"`
}

func (r ProductRequest) input() service.ProductInput {
	in := service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Slug:        r.Slug,
		Active:      true,
		InStock:     true,
		TagSlugs:    r.Tags,
	}
	if r.Active != nil {
		in.Active = *r.Active
	}
	if r.InStock != nil {
		in.InStock = *r.InStock
	}
	return in
}

type TagRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// ListProducts lists active products, optionally narrowed to one tag
// GET /api/v1/products/:tag
// Query params:
//   - page: 1-based page number (default 1)
//   - page_size: products per page (default 4)
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size")
	if !ok {
		return
	}

	tag := c.Param("tag")
	result, err := ctrl.catalogService.ListActive(c.Request.Context(), tag, page, pageSize)
	if err != nil {
		log.Warn("Failed to list products", map[string]interface{}{
			"tag":   tag,
			"error": err.Error(),
		})
		apperrors.RespondServiceError(c, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":  result.Products,
		"tag":       result.Tag,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// GetProduct returns an active product by slug
// GET /api/v1/product/:slug
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	product, err := ctrl.catalogService.GetActiveProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		apperrors.RespondServiceError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// ListTags lists active tags
// GET /api/v1/tags
func (ctrl *ProductController) ListTags(c *gin.Context) {
	tags, err := ctrl.catalogService.ListTags(c.Request.Context(), true)
	if err != nil {
		apperrors.RespondServiceError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tags": tags,
	})
}

// CreateProduct
// POST /api/v1/admin/catalog/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	product, err := ctrl.catalogService.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		apperrors.RespondServiceError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
	})
}

// UpdateProduct replaces a product's fields and tags
// PUT /api/v1/admin/catalog/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	product, err := ctrl.catalogService.UpdateProduct(c.Request.Context(), id, req.input())
	if err != nil {
		apperrors.RespondServiceError(c, err, "update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// DeleteProduct fails with 409 while orders reference the product
// DELETE /api/v1/admin/catalog/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		apperrors.RespondServiceError(c, err, "delete product")
		return
	}

	log.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})

	c.Status(http.StatusNoContent)
}

// CreateTag
// POST /api/v1/admin/catalog/tags
func (ctrl *ProductController) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	tag, err := ctrl.catalogService.CreateTag(c.Request.Context(), service.TagInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Active:      active,
	})
	if err != nil {
		apperrors.RespondServiceError(c, err, "create tag")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tag": tag,
	})
}
