package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinReviewRating        = 1
	MaxReviewRating        = 5
	MinReviewContentLength = 10
)

// Review is a product review. The composite unique index allows one review per
// (product, author email).
type Review struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID   string    `gorm:"not null;uniqueIndex:ux_review_product_user,priority:1" json:"product_id"`
	ProductName string    `gorm:"not null" json:"product_name"`
	UserID      string    `gorm:"not null" json:"user_id"`
	UserName    string    `gorm:"not null" json:"user_name"`
	UserEmail   string    `gorm:"not null;uniqueIndex:ux_review_product_user,priority:2" json:"user_email"`
	UserImage   *string   `json:"user_image,omitempty"`
	Rating      int       `gorm:"not null" json:"rating"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Images      []string  `gorm:"type:text;serializer:json" json:"images"`
	Helpful     int       `gorm:"not null;default:0" json:"helpful"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns a document-style identifier
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	return nil
}
