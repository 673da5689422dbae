package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a canonical, supplier-independent catalog entry.
// The SKU follows the NG-000001 pattern and is assigned monotonically
// inside the commit transaction that creates the product.
type Product struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	SKU        string         `json:"sku" gorm:"type:varchar(20);unique;not null"`
	Name       string         `json:"name" gorm:"type:varchar(255);index;not null"`
	Brand      string         `json:"brand" gorm:"type:varchar(100)"`
	CategoryID *uint          `json:"category_id"`
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// ProductVariant holds the sellable unit of a product. Stock deltas from
// confirmed purchases are applied at the variant level.
type ProductVariant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);default:'default'"`
	Stock     int       `json:"stock" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a node in the hierarchical category tree. Paths referenced by
// import rows are resolved parent-first, creating missing nodes on the way.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_parent_name"`
	ParentID  *uint     `json:"parent_id" gorm:"uniqueIndex:idx_parent_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
