package controller

import (
	"io"
	"net/http"

	"github.com/booktime/booktime-backend/internal/app/service"
	apperrors "github.com/booktime/booktime-backend/internal/errors"
	"github.com/booktime/booktime-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ImageController struct {
	imageService service.ImageService
}

func NewImageController(imageService service.ImageService) *ImageController {
	return &ImageController{
		imageService: imageService,
	}
}

// UploadImage stores a product image and its thumbnail
// POST /api/v1/admin/catalog/products/:id/images (multipart field "image")
func (ctrl *ImageController) UploadImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "image file is required")
		return
	}
	if header.Size > service.MaxProductImageBytes {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "image must be at most 10MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err)
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, service.MaxProductImageBytes+1))
	if err != nil {
		log.Error("Failed to read uploaded file", err)
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Could not read the uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	image, err := ctrl.imageService.Upload(c.Request.Context(), productID, header.Filename, contentType, body)
	if err != nil {
		log.Warn("Image upload failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.RespondServiceError(c, err, "create image")
		return
	}

	log.Info("Product image uploaded", map[string]interface{}{
		"product_id": productID,
		"image_id":   image.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"image": image,
	})
}

// ListImages
// GET /api/v1/admin/catalog/products/:id/images
func (ctrl *ImageController) ListImages(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	images, err := ctrl.imageService.List(c.Request.Context(), productID)
	if err != nil {
		apperrors.RespondServiceError(c, err, "list images")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": images,
	})
}

// DeleteImage removes the row and both stored objects
// DELETE /api/v1/admin/catalog/products/:id/images/:imageId
func (ctrl *ImageController) DeleteImage(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := idParam(c, "imageId")
	if !ok {
		return
	}

	if err := ctrl.imageService.Delete(c.Request.Context(), productID, imageID); err != nil {
		apperrors.RespondServiceError(c, err, "delete image")
		return
	}

	c.Status(http.StatusNoContent)
}
