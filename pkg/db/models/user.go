package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account collaborator; the core only needs identity and the
// fields echoed into payment preferences.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
