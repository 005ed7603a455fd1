package model

import (
	"strings"
	"time"
)

// SupportedCountries maps country codes accepted on addresses to display names.
var SupportedCountries = map[string]string{
	"SD":  "Sudan",
	"KSA": "Kingdom Saudia Arabia",
}

func IsSupportedCountry(code string) bool {
	_, ok := SupportedCountries[code]
	return ok
}

type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Address1  string    `gorm:"size:60;not null" json:"address1"`
	Address2  string    `gorm:"size:60" json:"address2"`
	ZipCode   string    `gorm:"size:12;not null" json:"zip_code"`
	City      string    `gorm:"size:60;not null" json:"city"`
	Country   string    `gorm:"size:3;not null" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}

func (a Address) String() string {
	return strings.Join([]string{a.Name, a.Address1, a.ZipCode, a.City, a.Country}, ", ")
}
