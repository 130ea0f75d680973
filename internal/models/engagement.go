package models

import "time"

// ProductLike records one account liking one product.
type ProductLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID string    `gorm:"size:191;not null;uniqueIndex:idx_like_product_account" json:"product_id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_like_product_account" json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductComment is a public comment on a product.
type ProductComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID string    `gorm:"size:191;not null;index" json:"product_id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Account   *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// CartItem is one product line in an account's cart.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_cart_account_product" json:"account_id"`
	ProductID string    `gorm:"size:191;not null;uniqueIndex:idx_cart_account_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
