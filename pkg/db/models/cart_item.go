package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one (user, product) row of a pre-order cart. ProductID is a weak
// reference: a product deleted after the row was created leaves the row
// dangling, and pricing skips it instead of failing. The unique index makes
// add-to-cart merge by product rather than duplicate rows.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"userId"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid;uniqueIndex:idx_cart_user_product" json:"productId"`
	Quantity  int        `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
