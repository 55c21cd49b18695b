package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is catalog state owned elsewhere; the core only reads the
// name/image for order detail views and decrements count_in_stock when an
// order is confirmed paid.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	ImageURL     *string         `gorm:"column:image_url"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CountInStock int             `gorm:"column:count_in_stock;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
