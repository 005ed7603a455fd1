package model

import (
	"time"
)

const (
	GroupEmployees   = "Employees"
	GroupDispatchers = "Dispatchers"
)

type AdminRole string // resolved from the user's flags and groups

const (
	RoleOwner         AdminRole = "owner"
	RoleCentralOffice AdminRole = "central_office"
	RoleDispatcher    AdminRole = "dispatcher"
	RoleCustomer      AdminRole = "customer"
)

func (r AdminRole) IsStaff() bool {
	return r == RoleOwner || r == RoleCentralOffice || r == RoleDispatcher
}

type Group struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

func (Group) TableName() string {
	return "groups"
}

// User logs in with Email. IsActive has no column default so that an
// explicit false is persisted.
type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null" json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"column:date_joined" json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Groups []Group `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// InGroup needs Groups preloaded.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (u *User) IsEmployee() bool {
	return u.IsActive && (u.IsSuperuser || u.IsStaff) && u.InGroup(GroupEmployees)
}

func (u *User) IsDispatcher() bool {
	return u.IsActive && (u.IsSuperuser || u.IsStaff) && u.InGroup(GroupDispatchers)
}

// Role picks the strongest admin persona: owner, then central office,
// then dispatcher.
func (u *User) Role() AdminRole {
	switch {
	case u.IsActive && u.IsSuperuser:
		return RoleOwner
	case u.IsEmployee():
		return RoleCentralOffice
	case u.IsDispatcher():
		return RoleDispatcher
	default:
		return RoleCustomer
	}
}
