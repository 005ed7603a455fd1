package db

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Group{},
		&model.User{},
		&model.Address{},
		&model.ProductTag{},
		&model.Product{},
		&model.ProductImage{},
		&model.Basket{},
		&model.BasketLine{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations and seeds the staff groups.
func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedGroups(db); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedGroups creates the groups that the admin role predicates look up.
func seedGroups(db *gorm.DB) error {
	for _, name := range []string{model.GroupEmployees, model.GroupDispatchers} {
		group := model.Group{Name: name}
		if err := db.Where(model.Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
			logger.Error("Failed to seed group", err, map[string]interface{}{
				"group": name,
			})
			return err
		}
	}
	return nil
}
