package models

import (
	"github.com/invoicing/backend/internal/domain/identity"
)

// UserModel is the persistence model for accounts provisioned by the
// authentication layer
type UserModel struct {
	BaseModel
	Username    string `gorm:"type:varchar(150);not null;uniqueIndex"`
	IsSuperuser bool   `gorm:"not null;default:false"`
	IsActive    bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:  m.BaseModel.ToDomain(),
		Username:    m.Username,
		IsSuperuser: m.IsSuperuser,
		IsActive:    m.IsActive,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
