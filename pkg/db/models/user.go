package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the resolved customer identity orders and carts belong to.
// Authentication lives outside this service; user ids arrive already verified.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"column:phone;uniqueIndex;not null" json:"phone"`
	FirstName string    `gorm:"column:first_name;not null" json:"firstName"`
	LastName  *string   `gorm:"column:last_name" json:"lastName,omitempty"`
	Address   *string   `gorm:"column:address" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
