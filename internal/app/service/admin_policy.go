package service

import (
	"sort"

	"github.com/booktime/booktime-backend/internal/app/model"
	"gorm.io/gorm"
)

type Resource string

const (
	ResourceProducts    Resource = "products"
	ResourceTags        Resource = "tags"
	ResourceImages      Resource = "images"
	ResourceUsers       Resource = "users"
	ResourceAddresses   Resource = "addresses"
	ResourceBaskets     Resource = "baskets"
	ResourceBasketLines Resource = "basket_lines"
	ResourceOrders      Resource = "orders"
	ResourceOrderItems  Resource = "order_items"
)

type fieldKind int

const (
	kindReadOnly fieldKind = iota
	kindString
	kindName
	kindSlug
	kindBool
	kindQuantity
	kindPrice
	kindCountry
	kindOrderStatus
	kindOrderItemStatus
)

// resourceMeta describes the table behind a resource and how each of its
// columns may be written.
type resourceMeta struct {
	table         string
	updatedColumn string
	columns       map[string]fieldKind
	// reported when an update hits a unique index; ErrDuplicateValue if nil
	duplicate error
}

func (m resourceMeta) duplicateErr() error {
	if m.duplicate != nil {
		return m.duplicate
	}
	return ErrDuplicateValue
}

func columnsOf(kinds map[string]fieldKind) []string {
	cols := make([]string, 0, len(kinds))
	for c := range kinds {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func addressColumns(prefix string) map[string]fieldKind {
	return map[string]fieldKind{
		prefix + "name":     kindString,
		prefix + "address1": kindString,
		prefix + "address2": kindString,
		prefix + "zip_code": kindString,
		prefix + "city":     kindString,
		prefix + "country":  kindCountry,
	}
}

func merge(maps ...map[string]fieldKind) map[string]fieldKind {
	out := map[string]fieldKind{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var resources = map[Resource]resourceMeta{
	ResourceProducts: {
		table:         "products",
		updatedColumn: "date_updated",
		duplicate:     ErrDuplicateSlug,
		columns: map[string]fieldKind{
			"id": kindReadOnly, "name": kindName, "slug": kindSlug, "description": kindString,
			"price": kindPrice, "active": kindBool, "in_stock": kindBool, "date_updated": kindReadOnly,
		},
	},
	ResourceTags: {
		table:         "product_tags",
		updatedColumn: "updated_at",
		duplicate:     ErrDuplicateSlug,
		columns: map[string]fieldKind{
			"id": kindReadOnly, "name": kindName, "slug": kindSlug, "description": kindString, "active": kindBool,
		},
	},
	ResourceImages: {
		table: "product_images",
		columns: map[string]fieldKind{
			"id": kindReadOnly, "product_id": kindReadOnly, "image_url": kindReadOnly,
			"thumbnail_url": kindReadOnly, "created_at": kindReadOnly,
		},
	},
	ResourceUsers: {
		table:         "users",
		updatedColumn: "updated_at",
		columns: map[string]fieldKind{
			"id": kindReadOnly, "email": kindReadOnly, "first_name": kindString, "last_name": kindString,
			"is_active": kindBool, "is_staff": kindBool, "is_superuser": kindBool,
			"last_login": kindReadOnly, "date_joined": kindReadOnly,
		},
	},
	ResourceAddresses: {
		table:         "addresses",
		updatedColumn: "updated_at",
		columns:       merge(map[string]fieldKind{"id": kindReadOnly, "user_id": kindReadOnly}, addressColumns("")),
	},
	// status only changes through checkout; a submitted basket is frozen
	ResourceBaskets: {
		table:         "baskets",
		updatedColumn: "updated_at",
		columns: map[string]fieldKind{
			"id": kindReadOnly, "user_id": kindReadOnly, "status": kindReadOnly,
			"created_at": kindReadOnly, "updated_at": kindReadOnly,
		},
	},
	ResourceBasketLines: {
		table:         "basket_lines",
		updatedColumn: "updated_at",
		columns: map[string]fieldKind{
			"id": kindReadOnly, "basket_id": kindReadOnly, "product_id": kindReadOnly, "quantity": kindQuantity,
		},
	},
	ResourceOrders: {
		table:         "orders",
		updatedColumn: "date_updated",
		columns: merge(
			map[string]fieldKind{
				"id": kindReadOnly, "user_id": kindReadOnly, "status": kindOrderStatus,
				"date_added": kindReadOnly, "date_updated": kindReadOnly,
			},
			addressColumns("billing_"),
			addressColumns("shipping_"),
		),
	},
	ResourceOrderItems: {
		table:         "order_items",
		updatedColumn: "updated_at",
		columns: map[string]fieldKind{
			"id": kindReadOnly, "order_id": kindReadOnly, "product_id": kindReadOnly,
			"status": kindOrderItemStatus, "price": kindReadOnly,
		},
	},
}

// ResourcePolicy is what one role may see and change on one resource.
// A nil Scope means every row.
type ResourcePolicy struct {
	Visible  []string
	Editable []string
	Scope    func(db *gorm.DB) *gorm.DB
}

func (p ResourcePolicy) canSee(col string) bool {
	return contains(p.Visible, col)
}

func (p ResourcePolicy) canEdit(col string) bool {
	return contains(p.Editable, col)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func editableOf(r Resource) []string {
	var out []string
	for col, kind := range resources[r].columns {
		if kind != kindReadOnly {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

func fullAccess(r Resource) ResourcePolicy {
	return ResourcePolicy{Visible: columnsOf(resources[r].columns), Editable: editableOf(r)}
}

func readOnly(r Resource) ResourcePolicy {
	return ResourcePolicy{Visible: columnsOf(resources[r].columns)}
}

func paidOrders(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", model.OrderStatusPaid)
}

func itemsOfPaidOrders(db *gorm.DB) *gorm.DB {
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("orders").Select("id").Where("status = ?", model.OrderStatusPaid)
	return db.Where("order_id IN (?)", sub)
}

// Policies is consulted by every admin operation. Roles without an entry
// for a resource cannot reach it at all.
var Policies = map[model.AdminRole]map[Resource]ResourcePolicy{
	model.RoleOwner: {
		ResourceProducts:    fullAccess(ResourceProducts),
		ResourceTags:        fullAccess(ResourceTags),
		ResourceImages:      readOnly(ResourceImages),
		ResourceUsers:       fullAccess(ResourceUsers),
		ResourceAddresses:   fullAccess(ResourceAddresses),
		ResourceBaskets:     fullAccess(ResourceBaskets),
		ResourceBasketLines: fullAccess(ResourceBasketLines),
		ResourceOrders:      fullAccess(ResourceOrders),
		ResourceOrderItems:  fullAccess(ResourceOrderItems),
	},
	model.RoleCentralOffice: {
		ResourceProducts:    fullAccess(ResourceProducts),
		ResourceTags:        fullAccess(ResourceTags),
		ResourceImages:      readOnly(ResourceImages),
		ResourceAddresses:   fullAccess(ResourceAddresses),
		ResourceBaskets:     fullAccess(ResourceBaskets),
		ResourceBasketLines: fullAccess(ResourceBasketLines),
		ResourceOrders:      fullAccess(ResourceOrders),
		ResourceOrderItems:  fullAccess(ResourceOrderItems),
	},
	model.RoleDispatcher: {
		ResourceProducts: {
			Visible: []string{"id", "name", "slug", "in_stock"},
		},
		ResourceOrders: {
			Visible: []string{
				"id", "status", "date_added",
				"shipping_name", "shipping_address1", "shipping_address2",
				"shipping_zip_code", "shipping_city", "shipping_country",
			},
			Editable: []string{"status"},
			Scope:    paidOrders,
		},
		ResourceOrderItems: {
			Visible:  []string{"id", "order_id", "product_id", "status"},
			Editable: []string{"status"},
			Scope:    itemsOfPaidOrders,
		},
	},
}

// PolicyFor returns the role's policy for a resource.
func PolicyFor(role model.AdminRole, r Resource) (ResourcePolicy, bool) {
	policy, ok := Policies[role][r]
	return policy, ok
}

// ResourcesFor lists what a role can open, in a stable order.
func ResourcesFor(role model.AdminRole) []Resource {
	order := []Resource{
		ResourceProducts, ResourceTags, ResourceImages, ResourceUsers, ResourceAddresses,
		ResourceBaskets, ResourceBasketLines, ResourceOrders, ResourceOrderItems,
	}
	var out []Resource
	for _, r := range order {
		if _, ok := Policies[role][r]; ok {
			out = append(out, r)
		}
	}
	return out
}
