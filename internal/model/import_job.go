package model

import (
	"time"
)

// Import job statuses
const (
	JobStatusPending   = "pending"
	JobStatusDryRun    = "dry_run"
	JobStatusCommitted = "committed"
)

// Import row classification statuses
const (
	RowStatusNew             = "new"
	RowStatusChanged         = "changed"
	RowStatusUnchanged       = "unchanged"
	RowStatusError           = "error"
	RowStatusDuplicateInFile = "duplicate_in_file"
)

// ImportJob represents one staged price-list import. A job is created
// pending, becomes a dry run once its rows are classified, and commits at
// most once; its rows keep the classification computed at dry-run time.
type ImportJob struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UUID           string    `json:"uuid" gorm:"type:varchar(36);unique;not null"`
	SupplierID     uint      `json:"supplier_id" gorm:"index;not null"`
	Filename       string    `json:"filename" gorm:"type:varchar(255)"`
	Status         string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	TotalRows      int       `json:"total_rows"`
	NewCount       int       `json:"new_count"`
	ChangedCount   int       `json:"changed_count"`
	UnchangedCount int       `json:"unchanged_count"`
	ErrorCount     int       `json:"error_count"`
	DuplicateCount int       `json:"duplicate_count"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Rows are deleted with their job; a row never outlives it
	Rows []ImportJobRow `json:"-" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

// ImportJobRow is one classified row of an import job. Rows are written at
// dry-run time and consumed, never mutated, by the commit engine. The
// cascade constraint keeps rows from outliving their job.
type ImportJobRow struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	JobID        uint   `json:"job_id" gorm:"not null;uniqueIndex:idx_job_row"`
	RowIndex     int    `json:"row_index" gorm:"not null;uniqueIndex:idx_job_row"`
	SupplierSKU  string `json:"supplier_sku" gorm:"type:varchar(100)"`
	Title        string `json:"title" gorm:"type:varchar(255)"`
	Brand        string `json:"brand" gorm:"type:varchar(100)"`
	CategoryPath string `json:"category_path" gorm:"type:varchar(255)"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency" gorm:"type:varchar(10)"`
	MinQty       int     `json:"min_qty" gorm:"default:1"`
	Status       string  `json:"status" gorm:"type:varchar(20);index"`
	ErrorTag     string  `json:"error_tag,omitempty" gorm:"type:varchar(100)"`
	Diff         string  `json:"diff,omitempty" gorm:"type:text"`       // JSON field diffs, filled for changed rows
	Candidates   string  `json:"candidates,omitempty" gorm:"type:text"` // JSON fuzzy-match candidates for unlinked rows
	ProductID    *uint   `json:"product_id"`                            // accepted or auto-linked canonical product
	AutoLink     bool    `json:"auto_link" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}
