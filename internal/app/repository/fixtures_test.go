package repository

import (
	"testing"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", IsActive: true}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, name, price string, active bool, tags ...model.ProductTag) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:    name,
		Slug:    name,
		Price:   decimal.RequireFromString(price),
		Active:  active,
		InStock: true,
		Tags:    tags,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func createTag(t *testing.T, testDB *gorm.DB, slug string) model.ProductTag {
	t.Helper()
	tag := model.ProductTag{Name: slug, Slug: slug, Active: true}
	require.NoError(t, testDB.Create(&tag).Error)
	return tag
}
