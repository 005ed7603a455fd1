package repository

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductImageRepository interface {
	Create(image *model.ProductImage) error
	FindByID(id uint) (*model.ProductImage, error)
	FindByProductID(productID uint) ([]model.ProductImage, error)
	Delete(id uint) error
}

type productImageRepository struct {
	db *gorm.DB
}

func NewProductImageRepository(db *gorm.DB) ProductImageRepository {
	return &productImageRepository{db: db}
}

func (r *productImageRepository) Create(image *model.ProductImage) error {
	if err := r.db.Create(image).Error; err != nil {
		logger.Error("Failed to create product image", err, map[string]interface{}{
			"product_id": image.ProductID,
		})
		return err
	}
	return nil
}

func (r *productImageRepository) FindByID(id uint) (*model.ProductImage, error) {
	var image model.ProductImage
	if err := r.db.First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *productImageRepository) FindByProductID(productID uint) ([]model.ProductImage, error) {
	var images []model.ProductImage
	err := r.db.Where("product_id = ?", productID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *productImageRepository) Delete(id uint) error {
	return r.db.Delete(&model.ProductImage{}, id).Error
}
