package service

import (
	"sync"
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

func createProduct(t *testing.T, testDB *gorm.DB, name, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:    name,
		Slug:    name,
		Price:   decimal.RequireFromString(price),
		Active:  true,
		InStock: true,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func createAddress(t *testing.T, testDB *gorm.DB, userID uint, city string) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:   userID,
		Name:     "Home",
		Address1: "1 Nile Street",
		ZipCode:  "11111",
		City:     city,
		Country:  "SD",
	}
	require.NoError(t, testDB.Create(address).Error)
	return address
}

func createBasket(t *testing.T, testDB *gorm.DB, userID *uint, lines map[uint]int) *model.Basket {
	t.Helper()
	basket := &model.Basket{UserID: userID, Status: model.BasketStatusOpen}
	require.NoError(t, testDB.Create(basket).Error)
	for productID, qty := range lines {
		line := &model.BasketLine{BasketID: basket.ID, ProductID: productID, Quantity: qty}
		require.NoError(t, testDB.Create(line).Error)
	}
	return basket
}

func addLine(t *testing.T, testDB *gorm.DB, basketID, productID uint, qty int) {
	t.Helper()
	line := &model.BasketLine{BasketID: basketID, ProductID: productID, Quantity: qty}
	require.NoError(t, testDB.Create(line).Error)
}

type recordedEvents struct {
	mu      sync.Mutex
	created []uint
	paid    []uint
}

func (r *recordedEvents) OrderCreated(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, order.ID)
}

func (r *recordedEvents) OrderPaid(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, order.ID)
}

func uintPtr(v uint) *uint {
	return &v
}
