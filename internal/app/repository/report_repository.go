package repository

import (
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

type ProductCount struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type ReportRepository interface {
	OrdersPerDay(since time.Time) ([]DayCount, error)
	MostBoughtProducts(since time.Time, limit int) ([]ProductCount, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) OrdersPerDay(since time.Time) ([]DayCount, error) {
	var rows []DayCount
	err := r.db.Model(&model.Order{}).
		Select("DATE(date_added) AS day, COUNT(id) AS count").
		Where("date_added >= ?", since).
		Group("DATE(date_added)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate orders per day", err)
		return nil, err
	}
	// postgres hands DATE() back as a timestamp string
	for i := range rows {
		if len(rows[i].Day) > 10 {
			rows[i].Day = rows[i].Day[:10]
		}
	}
	return rows, nil
}

// MostBoughtProducts counts order items (units) per product.
func (r *reportRepository) MostBoughtProducts(since time.Time, limit int) ([]ProductCount, error) {
	var rows []ProductCount
	err := r.db.Model(&model.OrderItem{}).
		Select("products.id AS product_id, products.name AS name, COUNT(order_items.id) AS quantity").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.date_added >= ?", since).
		Group("products.id, products.name").
		Order("quantity DESC").Order("products.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate most bought products", err)
		return nil, err
	}
	return rows, nil
}
