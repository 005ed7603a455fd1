package model

import (
	"time"
)

type BasketStatus string

const (
	BasketStatusOpen      BasketStatus = "open"
	BasketStatusSubmitted BasketStatus = "submitted"
)

// Basket belongs to no user until login. A user owns at most one open
// basket; the partial unique index enforces it.
type Basket struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	UserID    *uint        `gorm:"index:idx_baskets_open_user,unique,where:status = 'open'" json:"user_id"`
	Status    BasketStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	User  *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Lines []BasketLine `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (Basket) TableName() string {
	return "baskets"
}

func (b *Basket) IsOpen() bool {
	return b.Status == BasketStatusOpen
}

// IsEmpty and Count read Lines, which must be preloaded.
func (b *Basket) IsEmpty() bool {
	return len(b.Lines) == 0
}

func (b *Basket) Count() int {
	total := 0
	for _, l := range b.Lines {
		total += l.Quantity
	}
	return total
}

type BasketLine struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BasketID  uint      `gorm:"not null;index" json:"basket_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Quantity  int       `gorm:"not null;check:chk_basket_lines_quantity,quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}

func (BasketLine) TableName() string {
	return "basket_lines"
}
