package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses shown by the storefront and the admin back-office.
// The store does not restrict Status to this set.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusPreparing = "preparing"
	OrderStatusShipping  = "shipping"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

var knownOrderStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusPaid:      true,
	OrderStatusPreparing: true,
	OrderStatusShipping:  true,
	OrderStatusDelivered: true,
	OrderStatusCancelled: true,
	OrderStatusRefunded:  true,
}

// IsKnownOrderStatus reports whether status belongs to the enumerated set.
func IsKnownOrderStatus(status string) bool {
	return knownOrderStatuses[status]
}

// Order is a paid purchase of a course product
type Order struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID       string    `gorm:"not null;index" json:"order_id"` // merchant order reference sent to the gateway
	UserID        string    `gorm:"not null;index" json:"user_id"`
	UserEmail     string    `gorm:"not null;index" json:"user_email"`
	UserName      string    `gorm:"not null" json:"user_name"`
	ProductName   string    `gorm:"not null" json:"product_name"`
	Amount        int64     `gorm:"not null" json:"amount"` // smallest currency unit (KRW)
	Status        string    `gorm:"not null;default:'paid'" json:"status"`
	PaymentMethod string    `json:"payment_method"`
	PaymentKey    *string   `gorm:"uniqueIndex" json:"payment_key,omitempty"` // gateway reference, nullable
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a document-style identifier
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
