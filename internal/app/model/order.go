package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string     // order lifecycle
type OrderItemStatus string // per-unit fulfilment

const (
	OrderStatusNew  OrderStatus = "new"
	OrderStatusPaid OrderStatus = "paid"
	OrderStatusDone OrderStatus = "done"

	OrderItemStatusNew        OrderItemStatus = "new"
	OrderItemStatusProcessing OrderItemStatus = "processing"
	OrderItemStatusSent       OrderItemStatus = "sent"
	OrderItemStatusCancelled  OrderItemStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPaid, OrderStatusDone:
		return true
	}
	return false
}

func (s OrderItemStatus) Valid() bool {
	switch s {
	case OrderItemStatusNew, OrderItemStatusProcessing, OrderItemStatusSent, OrderItemStatusCancelled:
		return true
	}
	return false
}

// Order copies the billing and shipping addresses instead of referencing
// them, so later address edits leave it untouched.
type Order struct {
	ID     uint        `gorm:"primarykey" json:"id"`
	UserID uint        `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	BillingName     string `gorm:"size:60;not null" json:"billing_name"`
	BillingAddress1 string `gorm:"size:60;not null" json:"billing_address1"`
	BillingAddress2 string `gorm:"size:60" json:"billing_address2"`
	BillingZipCode  string `gorm:"size:12;not null" json:"billing_zip_code"`
	BillingCity     string `gorm:"size:60;not null" json:"billing_city"`
	BillingCountry  string `gorm:"size:3;not null" json:"billing_country"`

	ShippingName     string `gorm:"size:60;not null" json:"shipping_name"`
	ShippingAddress1 string `gorm:"size:60;not null" json:"shipping_address1"`
	ShippingAddress2 string `gorm:"size:60" json:"shipping_address2"`
	ShippingZipCode  string `gorm:"size:12;not null" json:"shipping_zip_code"`
	ShippingCity     string `gorm:"size:60;not null" json:"shipping_city"`
	ShippingCountry  string `gorm:"size:3;not null" json:"shipping_country"`

	CreatedAt time.Time `gorm:"column:date_added;index" json:"date_added"`
	UpdatedAt time.Time `gorm:"column:date_updated" json:"date_updated"`

	User  User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) SetBilling(a Address) {
	o.BillingName = a.Name
	o.BillingAddress1 = a.Address1
	o.BillingAddress2 = a.Address2
	o.BillingZipCode = a.ZipCode
	o.BillingCity = a.City
	o.BillingCountry = a.Country
}

func (o *Order) SetShipping(a Address) {
	o.ShippingName = a.Name
	o.ShippingAddress1 = a.Address1
	o.ShippingAddress2 = a.Address2
	o.ShippingZipCode = a.ZipCode
	o.ShippingCity = a.City
	o.ShippingCountry = a.Country
}

// Total sums the unit prices of Items, which must be preloaded.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price)
	}
	return total
}

// OrderItem is exactly one unit; a basket line of quantity N becomes N items.
type OrderItem struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Status    OrderItemStatus `gorm:"type:varchar(20);not null" json:"status"`
	Price     decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"` // unit price at checkout
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
