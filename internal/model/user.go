package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the identity provider's profile for a token subject.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email" gorm:"index"`
	Role  string    `json:"role" gorm:"not null;default:'student'"`
	Timestamps
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}
