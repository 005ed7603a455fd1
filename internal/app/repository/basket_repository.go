package repository

import (
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

// BasketRepository covers the read side and housekeeping of baskets.
// Mutations that must be atomic live in the basket service transactions.
type BasketRepository interface {
	FindByID(id uint) (*model.Basket, error)
	FindOpenByUserID(userID uint) (*model.Basket, error)
	DeleteAbandoned(updatedBefore time.Time) (int64, error)
}

type basketRepository struct {
	db *gorm.DB
}

func NewBasketRepository(db *gorm.DB) BasketRepository {
	return &basketRepository{db: db}
}

// PreloadLines loads lines in creation order with their products.
func PreloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("basket_lines.id ASC")
	}).Preload("Lines.Product")
}

func (r *basketRepository) FindByID(id uint) (*model.Basket, error) {
	logger.Debug("Finding basket by ID in database", map[string]interface{}{
		"basket_id": id,
	})

	var basket model.Basket
	if err := r.db.Scopes(PreloadLines).First(&basket, id).Error; err != nil {
		logNotFoundOrError("Failed to find basket by ID in database", err, map[string]interface{}{
			"basket_id": id,
		})
		return nil, err
	}
	return &basket, nil
}

func (r *basketRepository) FindOpenByUserID(userID uint) (*model.Basket, error) {
	logger.Debug("Finding open basket for user in database", map[string]interface{}{
		"user_id": userID,
	})

	var basket model.Basket
	err := r.db.Scopes(PreloadLines).
		Where("user_id = ? AND status = ?", userID, model.BasketStatusOpen).
		First(&basket).Error
	if err != nil {
		logNotFoundOrError("Failed to find open basket for user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &basket, nil
}

// DeleteAbandoned removes open anonymous baskets untouched since
// updatedBefore, lines first.
func (r *basketRepository) DeleteAbandoned(updatedBefore time.Time) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&model.Basket{}).Select("id").
			Where("user_id IS NULL AND status = ? AND updated_at < ?", model.BasketStatusOpen, updatedBefore)

		if err := tx.Where("basket_id IN (?)", stale).Delete(&model.BasketLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id IS NULL AND status = ? AND updated_at < ?", model.BasketStatusOpen, updatedBefore).
			Delete(&model.Basket{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete abandoned baskets", err)
		return 0, err
	}

	logger.Debug("Abandoned baskets deleted", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted, nil
}
