package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/catalog"
	"procurement-service/internal/model"
	"procurement-service/pkg/config"
	"procurement-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommitResult summarizes what a commit applied
type CommitResult struct {
	Inserted     int `json:"inserted"`
	Updated      int `json:"updated"`
	PriceChanges int `json:"price_changes"`
}

// Engine transactionally applies a dry-run job's accepted rows to the
// catalog, supplier products and price ledger. Everything happens inside
// one transaction: a failure at any row rolls the whole commit back and
// leaves the job in dry_run, retryable after remediation.
type Engine struct {
	db  *gorm.DB
	cfg config.ImportConfig
}

// NewEngine creates a commit engine
func NewEngine(db *gorm.DB, cfg config.ImportConfig) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// Commit applies every new/changed row of the job in row_index order.
// A second commit of the same job fails with ErrAlreadyCommitted without
// mutating anything.
func (e *Engine) Commit(ctx context.Context, jobUUID string) (*CommitResult, error) {
	log := logger.FromGoContext(ctx)
	result := &CommitResult{}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.ImportJob
		err := tx.Where("uuid = ?", jobUUID).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load import job: %w", err)
		}
		if job.Status == model.JobStatusCommitted {
			return ErrAlreadyCommitted
		}
		if job.Status == model.JobStatusPending {
			return ErrJobNotReady
		}

		// Deterministic application order; matters for category creation
		var rows []model.ImportJobRow
		err = tx.Where("job_id = ? AND status IN ?", job.ID,
			[]string{model.RowStatusNew, model.RowStatusChanged}).
			Order("row_index").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to load job rows: %w", err)
		}

		for i := range rows {
			if err := e.applyRow(tx, &job, &rows[i], result); err != nil {
				if isUniqueViolation(err) {
					return &ConflictError{RowIndex: rows[i].RowIndex, Err: err}
				}
				return fmt.Errorf("row %d: %w", rows[i].RowIndex, err)
			}
		}

		return markCommitted(tx, job.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Import job committed",
		zap.String("job_uuid", jobUUID),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("price_changes", result.PriceChanges))

	return result, nil
}

// applyRow applies one accepted row inside the commit transaction
func (e *Engine) applyRow(tx *gorm.DB, job *model.ImportJob, row *model.ImportJobRow, result *CommitResult) error {
	categoryID, err := catalog.EnsureCategoryPath(tx, row.CategoryPath)
	if err != nil {
		return err
	}

	// Upsert the supplier product on its (supplier_id, supplier_product_id) key
	var sp model.SupplierProduct
	var oldPrice float64
	created := false

	err = tx.Where("supplier_id = ? AND supplier_product_id = ?", job.SupplierID, row.SupplierSKU).
		First(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sp = model.SupplierProduct{
			SupplierID:        job.SupplierID,
			SupplierProductID: row.SupplierSKU,
			Title:             row.Title,
			Price:             row.Price,
			Currency:          row.Currency,
			MinPurchaseQty:    row.MinQty,
		}
		if err := tx.Create(&sp).Error; err != nil {
			return err
		}
		created = true
		result.Inserted++
	} else if err != nil {
		return err
	} else {
		oldPrice = sp.Price
		sp.Title = row.Title
		sp.Price = row.Price
		sp.Currency = row.Currency
		sp.MinPurchaseQty = row.MinQty
		if err := tx.Save(&sp).Error; err != nil {
			return err
		}
		result.Updated++
	}

	// Link to the canonical catalog: an accepted fuzzy match reuses the
	// product, auto-create without a candidate mints one
	if sp.ProductID == nil {
		if err := e.linkRow(tx, &sp, row, categoryID); err != nil {
			return err
		}
	}

	// Price movement goes to the append-only ledger. A prior price of zero
	// leaves the percentage undefined rather than dividing by it.
	if !created && priceMoved(oldPrice, row.Price) {
		entry := model.PriceHistoryEntry{
			SupplierProductID: sp.ID,
			OldPrice:          oldPrice,
			NewPrice:          row.Price,
			DeltaPercent:      priceDelta(oldPrice, row.Price),
			Source:            "import",
			CreatedAt:         time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		result.PriceChanges++
	}

	return nil
}

// linkRow creates or reuses a canonical product for an unlinked supplier
// product and records the equivalence
func (e *Engine) linkRow(tx *gorm.DB, sp *model.SupplierProduct, row *model.ImportJobRow, categoryID *uint) error {
	var productID uint
	source := "fuzzy"
	confidence := 0.0

	switch {
	case row.ProductID != nil:
		// Auto-linked fuzzy candidate or an operator-accepted one
		productID = *row.ProductID
		if !row.AutoLink {
			source = "manual"
		}
	case e.cfg.AutoCreate:
		sku, err := catalog.NextSKU(tx)
		if err != nil {
			return err
		}
		product := model.Product{
			SKU:        sku,
			Name:       row.Title,
			Brand:      row.Brand,
			CategoryID: categoryID,
			IsActive:   true,
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		variant := model.ProductVariant{ProductID: product.ID, Name: "default"}
		if err := tx.Create(&variant).Error; err != nil {
			return err
		}
		productID = product.ID
		source = "auto_create"
		confidence = 1.0
	default:
		// No accepted match and no auto-create: stays unlinked for the operator
		return nil
	}

	equivalence := model.Equivalence{
		SupplierProductID: sp.ID,
		ProductID:         productID,
		Source:            source,
		Confidence:        confidence,
	}
	if err := tx.Where("supplier_product_id = ? AND product_id = ?", sp.ID, productID).
		FirstOrCreate(&equivalence).Error; err != nil {
		return err
	}

	sp.ProductID = &productID
	if sp.VariantID == nil {
		var variant model.ProductVariant
		err := tx.Where("product_id = ?", productID).Order("id").First(&variant).Error
		if err == nil {
			sp.VariantID = &variant.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return tx.Save(sp).Error
}

// priceMoved reports whether the price actually changed
func priceMoved(oldPrice, newPrice float64) bool {
	diff := oldPrice - newPrice
	if diff < 0 {
		diff = -diff
	}
	return diff > priceEpsilon
}

// priceDelta computes the percentage delta, or nil when the old price is
// zero and the percentage is undefined
func priceDelta(oldPrice, newPrice float64) *float64 {
	if oldPrice == 0 {
		return nil
	}
	delta := (newPrice - oldPrice) / oldPrice * 100
	return &delta
}
