package repository

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByIDAndUser(id, userID uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) error
	UpdateItemStatus(itemID uint, status model.OrderItemStatus) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PreloadItems loads order items in creation order with their products.
func PreloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.Product")
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.db.Scopes(PreloadItems).First(&order, id).Error; err != nil {
		logNotFoundOrError("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByIDAndUser(id, userID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Scopes(PreloadItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		logNotFoundOrError("Failed to find order for user in database", err, map[string]interface{}{
			"order_id": id,
			"user_id":  userID,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.db.Scopes(PreloadItems).Where("user_id = ?", userID).
		Order("date_added DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	res := r.db.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		logger.Error("Failed to update order status in database", res.Error, map[string]interface{}{
			"order_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) UpdateItemStatus(itemID uint, status model.OrderItemStatus) error {
	res := r.db.Model(&model.OrderItem{}).Where("id = ?", itemID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
