package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

// Order is a placed customer order. TotalAmount is computed server-side at
// creation and never recomputed afterwards, even when product prices change.
// PromoCode stores the applied code for audit; the discount is already baked
// into TotalAmount.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	TotalAmount     types.Money       `gorm:"column:total_amount;type:numeric(10,2);not null" json:"totalAmount"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null" json:"deliveryAddress"`
	Comment         *string           `gorm:"column:comment" json:"comment,omitempty"`
	PackerComment   *string           `gorm:"column:packer_comment" json:"packerComment,omitempty"`
	PromoCode       *string           `gorm:"column:promo_code" json:"promoCode,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
