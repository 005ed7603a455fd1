package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/storage"
	"github.com/booktime/booktime-backend/pkg/imaging"
	"github.com/booktime/booktime-backend/pkg/logger"
)

const (
	productImageFolder   = "product-images"
	productThumbFolder   = "product-thumbnails"
	MaxProductImageBytes = 10 << 20
)

type ImageService interface {
	Upload(ctx context.Context, productID uint, filename, contentType string, body []byte) (*model.ProductImage, error)
	List(ctx context.Context, productID uint) ([]model.ProductImage, error)
	Delete(ctx context.Context, productID, imageID uint) error
}

type imageService struct {
	productRepo repository.ProductRepository
	imageRepo   repository.ProductImageRepository
	store       storage.ObjectStorage
}

func NewImageService(
	productRepo repository.ProductRepository,
	imageRepo repository.ProductImageRepository,
	store storage.ObjectStorage,
) ImageService {
	return &imageService{
		productRepo: productRepo,
		imageRepo:   imageRepo,
		store:       store,
	}
}

// Upload stores the original and a 200x150 JPEG thumbnail. The thumbnail
// is rendered before anything is written, so an undecodable upload leaves
// no trace.
func (s *imageService) Upload(ctx context.Context, productID uint, filename, contentType string, body []byte) (*model.ProductImage, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := storage.ValidateFileSize(int64(len(body)), MaxProductImageBytes); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"image": err.Error()}}
	}
	if err := storage.ValidateContentType(contentType, storage.ImageContentTypes); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"image": err.Error()}}
	}

	logger.Info("Generating thumbnail for product", map[string]interface{}{
		"product_id": productID,
	})
	thumb, err := imaging.Thumbnail(bytes.NewReader(body))
	if err != nil {
		logger.Warn("Thumbnail generation failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		if errors.Is(err, imaging.ErrTooLarge) {
			verr := &ValidationError{}
			verr.Add("image", ErrImageTooLarge)
			return nil, verr
		}
		if errors.Is(err, imaging.ErrUndecodable) {
			return nil, ErrImageUndecodable
		}
		return nil, fmt.Errorf("%w: %w", ErrDependency, err)
	}

	imageKey := storage.NewKey(productImageFolder, filename)
	imageURL, err := s.store.Put(ctx, imageKey, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("%w: store image: %w", ErrDependency, err)
	}
	thumbKey := storage.NewKey(productThumbFolder, "thumb.jpg")
	thumbURL, err := s.store.Put(ctx, thumbKey, "image/jpeg", thumb)
	if err != nil {
		s.discard(ctx, imageKey)
		return nil, fmt.Errorf("%w: store thumbnail: %w", ErrDependency, err)
	}

	image := &model.ProductImage{
		ProductID:    productID,
		ImageKey:     imageKey,
		ImageURL:     imageURL,
		ThumbnailKey: thumbKey,
		ThumbnailURL: thumbURL,
	}
	if err := s.imageRepo.Create(image); err != nil {
		s.discard(ctx, imageKey, thumbKey)
		return nil, err
	}

	logger.Info("Product image saved", map[string]interface{}{
		"product_id": productID,
		"image_id":   image.ID,
	})
	return image, nil
}

func (s *imageService) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn("Failed to remove stored object", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func (s *imageService) List(ctx context.Context, productID uint) ([]model.ProductImage, error) {
	return s.imageRepo.FindByProductID(productID)
}

func (s *imageService) Delete(ctx context.Context, productID, imageID uint) error {
	image, err := s.imageRepo.FindByID(imageID)
	if err != nil {
		return notFound(err, ErrImageNotFound)
	}
	if image.ProductID != productID {
		return ErrImageNotFound
	}
	if err := s.imageRepo.Delete(image.ID); err != nil {
		return err
	}
	s.discard(ctx, image.ImageKey, image.ThumbnailKey)
	return nil
}
