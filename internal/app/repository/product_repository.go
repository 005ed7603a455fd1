package repository

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductQuery narrows ListActive. A zero Limit returns every match.
type ProductQuery struct {
	TagID  *uint
	Offset int
	Limit  int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindActiveBySlug(slug string) (*model.Product, error)
	ListActive(q ProductQuery) ([]model.Product, int64, error)
	Update(product *model.Product) error
	ReplaceTags(product *model.Product, tags []model.ProductTag) error
	Delete(id uint) error
	CountOrderItems(productID uint) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name": product.Name,
		"slug": product.Slug,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
			"slug": product.Slug,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.Preload("Tags").Preload("Images").First(&product, id).Error; err != nil {
		logNotFoundOrError("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindActiveBySlug(slug string) (*model.Product, error) {
	logger.Debug("Finding active product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	err := r.db.Preload("Tags").Preload("Images").
		Where("slug = ? AND active = ?", slug, true).
		First(&product).Error
	if err != nil {
		logNotFoundOrError("Failed to find product by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &product, nil
}

// ListActive returns active products ordered by name, optionally
// restricted to one tag, with the total match count for paging.
func (r *productRepository) ListActive(q ProductQuery) ([]model.Product, int64, error) {
	logger.Debug("Listing active products in database", map[string]interface{}{
		"tag_id": q.TagID,
		"offset": q.Offset,
		"limit":  q.Limit,
	})

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("products.active = ?", true)
		if q.TagID != nil {
			db = db.
				Joins("JOIN product_tag_links ON product_tag_links.product_id = products.id").
				Where("product_tag_links.product_tag_id = ?", *q.TagID)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&model.Product{}).Scopes(filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count active products", err)
		return nil, 0, err
	}

	query := r.db.Scopes(filter).Order("products.name ASC").Order("products.id ASC")
	if q.Limit > 0 {
		query = query.Offset(q.Offset).Limit(q.Limit)
	}

	var products []model.Product
	if err := query.Preload("Tags").Find(&products).Error; err != nil {
		logger.Error("Failed to list active products", err)
		return nil, 0, err
	}

	logger.Debug("Active products listed", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Omit("Tags", "Images").Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) ReplaceTags(product *model.Product, tags []model.ProductTag) error {
	return r.db.Model(product).Association("Tags").Replace(tags)
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.BasketLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, id).Error
	})
}

func (r *productRepository) CountOrderItems(productID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
