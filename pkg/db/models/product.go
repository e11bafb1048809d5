package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

// Product is a catalog listing. Price is fixed-point decimal; it is read at
// checkout time and frozen into the order total, so later price edits never
// rewrite history.
type Product struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	Description     *string        `gorm:"column:description" json:"description,omitempty"`
	Price           types.Money    `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Weight          *string        `gorm:"column:weight" json:"weight,omitempty"`
	ImageURL        *string        `gorm:"column:image_url" json:"imageUrl,omitempty"`
	CategoryID      *uuid.UUID     `gorm:"column:category_id;type:uuid" json:"categoryId,omitempty"`
	IsPopular       bool           `gorm:"column:is_popular;not null;default:false" json:"isPopular"`
	InStock         bool           `gorm:"column:in_stock;not null;default:true" json:"inStock"`
	Ingredients     pq.StringArray `gorm:"column:ingredients;type:text[]" json:"ingredients,omitempty"`
	Manufacturer    *string        `gorm:"column:manufacturer" json:"manufacturer,omitempty"`
	CountryOfOrigin *string        `gorm:"column:country_of_origin" json:"countryOfOrigin,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
