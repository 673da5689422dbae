package model

import (
	"time"
)

// SupplierProduct is the supplier's view of an offering. The
// (supplier_id, supplier_product_id) pair is globally unique and is the
// key every import row is matched against.
type SupplierProduct struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SupplierID        uint      `json:"supplier_id" gorm:"not null;uniqueIndex:idx_supplier_item"`
	SupplierProductID string    `json:"supplier_product_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_supplier_item"`
	Title             string    `json:"title" gorm:"type:varchar(255);not null"`
	Price             float64   `json:"price" gorm:"not null"`
	Currency          string    `json:"currency" gorm:"type:varchar(10);default:'ARS'"`
	MinPurchaseQty    int       `json:"min_purchase_qty" gorm:"default:1"`
	ProductID         *uint     `json:"product_id" gorm:"index"`
	VariantID         *uint     `json:"variant_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Equivalence links a supplier offering to the canonical product it
// represents. One link per (supplier_product, product) pair.
type Equivalence struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SupplierProductID uint      `json:"supplier_product_id" gorm:"not null;uniqueIndex:idx_equivalence"`
	ProductID         uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_equivalence"`
	Source            string    `json:"source" gorm:"type:varchar(20);default:'manual'"` // manual, fuzzy, auto_create
	Confidence        float64   `json:"confidence" gorm:"default:0"`
	CreatedAt         time.Time `json:"created_at"`
}

// PriceHistoryEntry is an append-only ledger row recording a supplier price
// movement. DeltaPercent is nil when the previous price was zero, since the
// percentage is undefined in that case.
type PriceHistoryEntry struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SupplierProductID uint      `json:"supplier_product_id" gorm:"not null;index:idx_price_history,priority:1"`
	OldPrice          float64   `json:"old_price"`
	NewPrice          float64   `json:"new_price"`
	DeltaPercent      *float64  `json:"delta_percent"`
	Source            string    `json:"source" gorm:"type:varchar(20);default:'import'"` // import, purchase
	CreatedAt         time.Time `json:"created_at" gorm:"index:idx_price_history,priority:2"`
}
