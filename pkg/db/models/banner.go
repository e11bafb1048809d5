package models

import (
	"time"

	"github.com/google/uuid"
)

// Banner is promotional storefront content with an optional display window.
type Banner struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	ImageURL    string     `gorm:"column:image_url;not null" json:"imageUrl"`
	LinkURL     *string    `gorm:"column:link_url" json:"linkUrl,omitempty"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true" json:"isActive"`
	Priority    int        `gorm:"column:priority;not null;default:0" json:"priority"`
	StartDate   *time.Time `gorm:"column:start_date" json:"startDate,omitempty"`
	EndDate     *time.Time `gorm:"column:end_date" json:"endDate,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
