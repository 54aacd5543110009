package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry belonging to exactly one shop.
// Names are matched case/whitespace-insensitively within a shop during import.
type Product struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShopID    uuid.UUID         `json:"shopId" gorm:"type:uuid;not null;index:idx_products_shop_active"`
	Name      string            `json:"name" gorm:"not null"`
	BasePrice float64           `json:"basePrice" gorm:"type:decimal(10,2);not null;default:0"`
	IsActive  bool              `json:"isActive" gorm:"not null;default:true;index:idx_products_shop_active"`
	Variants  []*ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ProductVariant is a size and/or color option of a product.
// Name carries the size label (may be empty), ColorName the color.
type ProductVariant struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID       uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Name            string    `json:"name" gorm:"not null;default:''"`
	ColorName       *string   `json:"colorName,omitempty" gorm:"column:color_name"`
	AdditionalPrice float64   `json:"additionalPrice" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsCombination reports whether the variant carries both a size and a color.
func (v *ProductVariant) IsCombination() bool {
	return v.Name != "" && v.ColorName != nil && *v.ColorName != ""
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductVariant model
func (ProductVariant) TableName() string {
	return "product_variants"
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
