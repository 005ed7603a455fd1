package service

import (
	"context"
	"strings"
	"testing"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type adminFixture struct {
	svc    AdminService
	db     *gorm.DB
	events *recordedEvents
	newID  uint
	paidID uint
}

func setupAdminServiceTest(t *testing.T) *adminFixture {
	testDB := setupTestDB(t)
	events := &recordedEvents{}
	svc := NewAdminService(testDB, repository.NewOrderRepository(testDB), events)

	user := createUser(t, testDB, "customer@test")
	book := createProduct(t, testDB, "book", "10.00")
	newOrder := &model.Order{UserID: user.ID, Status: model.OrderStatusNew, ShippingCity: "Omdurman", BillingCity: "Omdurman",
		Items: []model.OrderItem{{ProductID: book.ID, Status: model.OrderItemStatusNew, Price: book.Price}}}
	paidOrder := &model.Order{UserID: user.ID, Status: model.OrderStatusPaid, ShippingCity: "Khartoum", BillingCity: "Khartoum",
		Items: []model.OrderItem{{ProductID: book.ID, Status: model.OrderItemStatusNew, Price: book.Price}}}
	require.NoError(t, testDB.Create(newOrder).Error)
	require.NoError(t, testDB.Create(paidOrder).Error)

	return &adminFixture{svc: svc, db: testDB, events: events, newID: newOrder.ID, paidID: paidOrder.ID}
}

func TestPolicies(t *testing.T) {
	assert.Len(t, ResourcesFor(model.RoleOwner), 9)
	assert.NotContains(t, ResourcesFor(model.RoleCentralOffice), ResourceUsers)
	assert.Equal(t, []Resource{ResourceProducts, ResourceOrders, ResourceOrderItems}, ResourcesFor(model.RoleDispatcher))
	assert.Empty(t, ResourcesFor(model.RoleCustomer))

	policy, ok := PolicyFor(model.RoleDispatcher, ResourceProducts)
	require.True(t, ok)
	assert.Empty(t, policy.Editable)
	assert.False(t, policy.canSee("price"))

	owner, _ := PolicyFor(model.RoleOwner, ResourceOrders)
	assert.True(t, owner.canEdit("status"))
	assert.False(t, owner.canEdit("id"))
}

func TestResourceMeta_DuplicateErr(t *testing.T) {
	tests := []struct {
		resource Resource
		want     error
	}{
		{resource: ResourceProducts, want: ErrDuplicateSlug},
		{resource: ResourceTags, want: ErrDuplicateSlug},
		{resource: ResourceUsers, want: ErrDuplicateValue},
		{resource: ResourceAddresses, want: ErrDuplicateValue},
		{resource: ResourceOrders, want: ErrDuplicateValue},
	}

	for _, tt := range tests {
		t.Run(string(tt.resource), func(t *testing.T) {
			err := conflictOnDuplicate(gorm.ErrDuplicatedKey, resources[tt.resource].duplicateErr())
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestAdminService_List(t *testing.T) {
	f := setupAdminServiceTest(t)
	ctx := context.Background()

	t.Run("owner sees every order", func(t *testing.T) {
		page, err := f.svc.List(ctx, model.RoleOwner, ResourceOrders, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Contains(t, page.Rows[0], "billing_city")
	})

	t.Run("dispatcher sees paid orders with shipping fields only", func(t *testing.T) {
		page, err := f.svc.List(ctx, model.RoleDispatcher, ResourceOrders, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "Khartoum", page.Rows[0]["shipping_city"])
		assert.NotContains(t, page.Rows[0], "billing_city")
	})

	t.Run("dispatcher sees items of paid orders", func(t *testing.T) {
		page, err := f.svc.List(ctx, model.RoleDispatcher, ResourceOrderItems, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.NotContains(t, page.Rows[0], "price")
	})

	t.Run("central office cannot open users", func(t *testing.T) {
		_, err := f.svc.List(ctx, model.RoleCentralOffice, ResourceUsers, 1, 10)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("customers cannot open anything", func(t *testing.T) {
		_, err := f.svc.List(ctx, model.RoleCustomer, ResourceProducts, 1, 10)
		assert.ErrorIs(t, err, ErrResourceForbidden)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := f.svc.List(ctx, model.RoleOwner, Resource("widgets"), 1, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAdminService_Get(t *testing.T) {
	f := setupAdminServiceTest(t)
	ctx := context.Background()

	row, err := f.svc.Get(ctx, model.RoleDispatcher, ResourceOrders, f.paidID)
	require.NoError(t, err)
	assert.Equal(t, "paid", row["status"])

	_, err = f.svc.Get(ctx, model.RoleDispatcher, ResourceOrders, f.newID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminService_Update(t *testing.T) {
	f := setupAdminServiceTest(t)
	ctx := context.Background()

	t.Run("order moving to paid is published", func(t *testing.T) {
		row, err := f.svc.Update(ctx, model.RoleCentralOffice, ResourceOrders, f.newID, map[string]interface{}{"status": "paid"})
		require.NoError(t, err)
		assert.Equal(t, "paid", row["status"])
		assert.Equal(t, []uint{f.newID}, f.events.paid)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleOwner, ResourceOrders, f.newID, map[string]interface{}{"status": "shipped"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("dispatcher can only change status", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleDispatcher, ResourceOrders, f.paidID, map[string]interface{}{"shipping_city": "Kassala"})
		assert.ErrorIs(t, err, ErrFieldNotEditable)

		row, err := f.svc.Update(ctx, model.RoleDispatcher, ResourceOrders, f.paidID, map[string]interface{}{"status": "done"})
		require.NoError(t, err)
		assert.Equal(t, "done", row["status"])

		_, err = f.svc.Update(ctx, model.RoleDispatcher, ResourceOrders, f.paidID, map[string]interface{}{"status": "paid"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("dispatcher cannot edit products", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleDispatcher, ResourceProducts, 1, map[string]interface{}{"in_stock": false})
		assert.ErrorIs(t, err, ErrFieldNotEditable)
	})

	t.Run("order item status", func(t *testing.T) {
		var item model.OrderItem
		require.NoError(t, f.db.Where("order_id = ?", f.newID).First(&item).Error)

		row, err := f.svc.Update(ctx, model.RoleOwner, ResourceOrderItems, item.ID, map[string]interface{}{"status": "sent"})
		require.NoError(t, err)
		assert.Equal(t, "sent", row["status"])

		_, err = f.svc.Update(ctx, model.RoleOwner, ResourceOrderItems, item.ID, map[string]interface{}{"status": "lost"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("product price", func(t *testing.T) {
		var product model.Product
		require.NoError(t, f.db.First(&product).Error)

		_, err := f.svc.Update(ctx, model.RoleOwner, ResourceProducts, product.ID, map[string]interface{}{"price": "-3"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.svc.Update(ctx, model.RoleOwner, ResourceProducts, product.ID, map[string]interface{}{"price": "12.50"})
		require.NoError(t, err)
		require.NoError(t, f.db.First(&product, product.ID).Error)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleOwner, ResourceProducts, 1, map[string]interface{}{"colour": "red"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing row", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleOwner, ResourceTags, 9999, map[string]interface{}{"name": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAdminService_SubmittedBasketIsFrozen(t *testing.T) {
	f := setupAdminServiceTest(t)
	ctx := context.Background()
	baskets := NewBasketService(f.db, repository.NewBasketRepository(f.db), repository.NewOrderRepository(f.db), nil, nil)

	user := createUser(t, f.db, "buyer@test")
	address := createAddress(t, f.db, user.ID, "Omdurman")
	book := createProduct(t, f.db, "novel", "4.00")
	basket := createBasket(t, f.db, &user.ID, map[uint]int{book.ID: 1})
	var line model.BasketLine
	require.NoError(t, f.db.Where("basket_id = ?", basket.ID).First(&line).Error)

	t.Run("lines of an open basket can be edited", func(t *testing.T) {
		row, err := f.svc.Update(ctx, model.RoleCentralOffice, ResourceBasketLines, line.ID, map[string]interface{}{"quantity": float64(2)})
		require.NoError(t, err)
		assert.EqualValues(t, 2, row["quantity"])
	})

	_, err := baskets.Checkout(ctx, basket.ID, address.ID, address.ID)
	require.NoError(t, err)

	t.Run("lines of a submitted basket are refused", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleCentralOffice, ResourceBasketLines, line.ID, map[string]interface{}{"quantity": float64(5)})
		assert.ErrorIs(t, err, ErrBasketNotOpen)

		var reloaded model.BasketLine
		require.NoError(t, f.db.First(&reloaded, line.ID).Error)
		assert.Equal(t, 2, reloaded.Quantity)
	})

	t.Run("basket status cannot be reopened", func(t *testing.T) {
		for _, role := range []model.AdminRole{model.RoleOwner, model.RoleCentralOffice} {
			_, err := f.svc.Update(ctx, role, ResourceBaskets, basket.ID, map[string]interface{}{"status": "open"})
			assert.ErrorIs(t, err, ErrFieldNotEditable)
		}

		_, err := baskets.Checkout(ctx, basket.ID, address.ID, address.ID)
		assert.ErrorIs(t, err, ErrBasketNotOpen)

		var orders int64
		require.NoError(t, f.db.Model(&model.Order{}).Where("user_id = ?", user.ID).Count(&orders).Error)
		assert.Equal(t, int64(1), orders)
	})
}

func TestAdminService_UpdateCatalogBounds(t *testing.T) {
	f := setupAdminServiceTest(t)
	ctx := context.Background()
	createProduct(t, f.db, "other", "1.00")
	var product model.Product
	require.NoError(t, f.db.Where("slug = ?", "book").First(&product).Error)

	tests := []struct {
		name    string
		changes map[string]interface{}
		wantErr error
	}{
		{name: "price above column range", changes: map[string]interface{}{"price": "10000"}, wantErr: ErrPriceTooHigh},
		{name: "negative price", changes: map[string]interface{}{"price": -1.0}, wantErr: ErrInvalidPrice},
		{name: "slug without letters", changes: map[string]interface{}{"slug": "!!!"}, wantErr: ErrInvalidSlug},
		{name: "long slug", changes: map[string]interface{}{"slug": strings.Repeat("a", 49)}, wantErr: ErrSlugTooLong},
		{name: "long name", changes: map[string]interface{}{"name": strings.Repeat("n", 33)}, wantErr: ErrNameTooLong},
		{name: "blank name", changes: map[string]interface{}{"name": "  "}, wantErr: ErrRequired},
		{name: "taken slug", changes: map[string]interface{}{"slug": "other"}, wantErr: ErrDuplicateSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, model.RoleOwner, ResourceProducts, product.ID, tt.changes)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("field message has no kind prefix", func(t *testing.T) {
		_, err := f.svc.Update(ctx, model.RoleOwner, ResourceProducts, product.ID, map[string]interface{}{"price": "10000"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "price must be at most 9999.99", verr.Fields["price"])
	})

	t.Run("slug is normalized", func(t *testing.T) {
		row, err := f.svc.Update(ctx, model.RoleOwner, ResourceProducts, product.ID, map[string]interface{}{"slug": " Not a Slug!! "})
		require.NoError(t, err)
		assert.Equal(t, "not-a-slug", row["slug"])
	})
}
