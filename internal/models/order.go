package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is a customer order within a shop.
// Imported orders are deduplicated on (shop, customer name, customer email, day of CreatedAt).
type Order struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID        uuid.UUID    `json:"shopId" gorm:"type:uuid;not null;index:idx_orders_shop_created"`
	OrderNumber   *string      `json:"orderNumber,omitempty" gorm:"column:order_number;type:varchar(64)"`
	CustomerName  string       `json:"customerName" gorm:"not null;default:''"`
	CustomerEmail string       `json:"customerEmail" gorm:"not null;default:''"`
	ClassName     string       `json:"className" gorm:"not null;default:''"`
	Status        OrderStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	TotalAmount   float64      `json:"totalAmount" gorm:"type:decimal(10,2);not null;default:0"`
	Items         []*OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time    `json:"createdAt" gorm:"index:idx_orders_shop_created,sort:desc"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// OrderItem is one product line of an order. LineTotal = Quantity * UnitPrice rounded to cents.
type OrderItem struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID   uuid.UUID  `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `json:"productId" gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `json:"variantId,omitempty" gorm:"type:uuid"`
	Quantity  int        `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice float64    `json:"unitPrice" gorm:"type:decimal(10,2);not null;default:0"`
	LineTotal float64    `json:"lineTotal" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}
