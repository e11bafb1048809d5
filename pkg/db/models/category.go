package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for the storefront navigation.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	ImageURL  *string   `gorm:"column:image_url" json:"imageUrl,omitempty"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
