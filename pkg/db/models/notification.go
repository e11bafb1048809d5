package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/pkg/enums"
)

// Notification is an append-only in-app message, created by the system only.
// RelatedOrderID is a weak back-reference used for UI deep-linking.
type Notification struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Title          string                 `gorm:"column:title;not null" json:"title"`
	Message        string                 `gorm:"column:message;not null" json:"message"`
	Type           enums.NotificationType `gorm:"column:type;type:text;not null;default:'info'" json:"type"`
	RelatedOrderID *uuid.UUID             `gorm:"column:related_order_id;type:uuid" json:"relatedOrderId,omitempty"`
	IsRead         bool                   `gorm:"column:is_read;not null;default:false" json:"isRead"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
