package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"size:32;not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	Slug        string          `gorm:"size:48;uniqueIndex;not null" json:"slug"`
	Active      bool            `gorm:"not null;index" json:"active"`
	InStock     bool            `gorm:"not null" json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:date_updated" json:"date_updated"`

	Tags   []ProductTag   `gorm:"many2many:product_tag_links;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Images []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ProductTag is looked up by Slug, its natural key.
type ProductTag struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:32;not null" json:"name"`
	Slug        string    `gorm:"size:48;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"not null" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProductTag) TableName() string {
	return "product_tags"
}

type ProductImage struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	ImageKey     string    `gorm:"not null" json:"-"`
	ImageURL     string    `gorm:"not null" json:"image_url"`
	ThumbnailKey string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
