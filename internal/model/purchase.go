package model

import (
	"time"
)

// Purchase document statuses. Confirmation is one-way: a confirmed
// document never goes back to draft.
const (
	PurchaseStatusDraft     = "draft"
	PurchaseStatusConfirmed = "confirmed"
	PurchaseStatusCancelled = "cancelled"
)

// PurchaseDocument is the header of a supplier purchase. The confirmation
// result is stored on the document so a repeated confirm call can replay
// the original outcome without touching stock again.
type PurchaseDocument struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UUID        string     `json:"uuid" gorm:"type:varchar(36);unique;not null"`
	SupplierID  uint       `json:"supplier_id" gorm:"index;not null"`
	Reference   string     `json:"reference" gorm:"type:varchar(100)"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'draft'"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	Result      string     `json:"result,omitempty" gorm:"type:text"` // JSON ConfirmResult captured at confirmation
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Lines are deleted with their document
	Lines []PurchaseLine `json:"-" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// PurchaseLine is one received item on a purchase document.
type PurchaseLine struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DocumentID  uint      `json:"document_id" gorm:"index;not null"`
	SupplierSKU string    `json:"supplier_sku" gorm:"type:varchar(100);not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitCost    float64   `json:"unit_cost"`
	VariantID   *uint     `json:"variant_id"`
	Linked      bool      `json:"linked" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
