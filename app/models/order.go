package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ORDER_STATUS_PENDING   = "pending"
	ORDER_STATUS_PAID      = "paid"
	ORDER_STATUS_SHIPPED   = "shipped"
	ORDER_STATUS_CANCELLED = "cancelled"
)

type Order struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index" json:"user_id"`
	User       User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status     string         `gorm:"type:varchar(50);default:'pending'" json:"status" validate:"oneof=pending paid shipped cancelled"`
	TotalCents int            `gorm:"default:0" json:"total_cents"`
	Items      []OrderItem    `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type OrderItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"index" json:"order_id"`
	ProductID       uint      `gorm:"index" json:"product_id"`
	Quantity        int       `gorm:"default:1" json:"quantity" validate:"min=1"`
	PriceAtPurchase int       `gorm:"default:0" json:"price_at_purchase"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Subtotal returns the line total in cents.
func (i *OrderItem) Subtotal() int {
	return i.Quantity * i.PriceAtPurchase
}
