package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUser_RolePredicates(t *testing.T) {
	employees := Group{Name: GroupEmployees}
	dispatchers := Group{Name: GroupDispatchers}

	tests := []struct {
		name           string
		user           User
		wantEmployee   bool
		wantDispatcher bool
		wantRole       AdminRole
	}{
		{
			name:     "Plain customer",
			user:     User{IsActive: true},
			wantRole: RoleCustomer,
		},
		{
			name:     "Superuser without groups is owner",
			user:     User{IsActive: true, IsSuperuser: true},
			wantRole: RoleOwner,
		},
		{
			name:         "Staff in Employees",
			user:         User{IsActive: true, IsStaff: true, Groups: []Group{employees}},
			wantEmployee: true,
			wantRole:     RoleCentralOffice,
		},
		{
			name:           "Staff in Dispatchers",
			user:           User{IsActive: true, IsStaff: true, Groups: []Group{dispatchers}},
			wantDispatcher: true,
			wantRole:       RoleDispatcher,
		},
		{
			name:     "Employees group without staff flag",
			user:     User{IsActive: true, Groups: []Group{employees}},
			wantRole: RoleCustomer,
		},
		{
			name:     "Inactive staff",
			user:     User{IsActive: false, IsStaff: true, Groups: []Group{employees, dispatchers}},
			wantRole: RoleCustomer,
		},
		{
			name:           "Both groups resolves to central office",
			user:           User{IsActive: true, IsStaff: true, Groups: []Group{dispatchers, employees}},
			wantEmployee:   true,
			wantDispatcher: true,
			wantRole:       RoleCentralOffice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEmployee, tt.user.IsEmployee())
			assert.Equal(t, tt.wantDispatcher, tt.user.IsDispatcher())
			assert.Equal(t, tt.wantRole, tt.user.Role())
		})
	}
}

func TestBasket_EmptyAndCount(t *testing.T) {
	b := Basket{Status: BasketStatusOpen}
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Count())

	b.Lines = []BasketLine{{Quantity: 2}, {Quantity: 1}}
	assert.False(t, b.IsEmpty())
	assert.Equal(t, 3, b.Count())
	assert.True(t, b.IsOpen())
}

func TestOrder_AddressSnapshot(t *testing.T) {
	billing := Address{Name: "Home", Address1: "1 Nile St", ZipCode: "11111", City: "Omdurman", Country: "SD"}
	shipping := Address{Name: "Work", Address1: "2 Palm Rd", Address2: "Floor 3", ZipCode: "22222", City: "Khartoum", Country: "SD"}

	var o Order
	o.SetBilling(billing)
	o.SetShipping(shipping)
	billing.City = "Changed"

	assert.Equal(t, "Omdurman", o.BillingCity)
	assert.Equal(t, "Floor 3", o.ShippingAddress2)
	assert.Equal(t, "Khartoum", o.ShippingCity)
}

func TestOrder_Total(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Price: decimal.RequireFromString("10.00")},
		{Price: decimal.RequireFromString("10.00")},
		{Price: decimal.RequireFromString("2.50")},
	}}
	assert.True(t, o.Total().Equal(decimal.RequireFromString("22.50")))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPaid.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.True(t, OrderItemStatusCancelled.Valid())
	assert.False(t, OrderItemStatus("").Valid())
}

func TestSupportedCountries(t *testing.T) {
	assert.True(t, IsSupportedCountry("SD"))
	assert.True(t, IsSupportedCountry("KSA"))
	assert.False(t, IsSupportedCountry("US"))
	assert.Equal(t, "Home, 1 Nile St, 11111, Omdurman, SD",
		Address{Name: "Home", Address1: "1 Nile St", ZipCode: "11111", City: "Omdurman", Country: "SD"}.String())
}
