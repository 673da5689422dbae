package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/model"
	"procurement-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppliedDelta is the audit record of one line's stock application
type AppliedDelta struct {
	LineID      uint   `json:"line_id"`
	SupplierSKU string `json:"supplier_sku"`
	VariantID   uint   `json:"variant_id"`
	OldStock    int    `json:"old_stock"`
	Delta       int    `json:"delta"`
	NewStock    int    `json:"new_stock"`
}

// ConfirmResult is the outcome of a confirmation. A replayed confirmation
// carries the originally applied deltas with AlreadyConfirmed set.
type ConfirmResult struct {
	AppliedDeltas    []AppliedDelta `json:"applied_deltas"`
	AlreadyConfirmed bool           `json:"already_confirmed"`
}

// Service applies draft-to-confirmed transitions of purchase documents.
// Confirmation is idempotent and all-or-nothing: one transaction covers
// line resolution, stock deltas, the price ledger and the status flip.
type Service struct {
	db     *gorm.DB
	strict bool
}

// NewService creates a confirmation service. strict rejects confirmations
// containing lines that cannot be resolved to an internal variant.
func NewService(db *gorm.DB, strict bool) *Service {
	return &Service{db: db, strict: strict}
}

// Confirm transitions a draft document to confirmed and applies per-line
// stock deltas. Confirming an already-confirmed document replays the
// stored result without reapplying anything.
func (s *Service) Confirm(ctx context.Context, purchaseUUID string, debug bool) (*ConfirmResult, error) {
	log := logger.FromGoContext(ctx)
	result := &ConfirmResult{AppliedDeltas: []AppliedDelta{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.PurchaseDocument
		err := tx.Where("uuid = ?", purchaseUUID).First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load purchase document: %w", err)
		}

		// Idempotency guard: replay the original outcome, touch nothing
		if doc.Status == model.PurchaseStatusConfirmed {
			if doc.Result != "" {
				if err := json.Unmarshal([]byte(doc.Result), result); err != nil {
					return fmt.Errorf("failed to decode stored confirmation result: %w", err)
				}
			}
			result.AlreadyConfirmed = true
			return nil
		}
		if doc.Status == model.PurchaseStatusCancelled {
			return ErrPurchaseCancelled
		}

		var lines []model.PurchaseLine
		if err := tx.Where("document_id = ?", doc.ID).Order("id").Find(&lines).Error; err != nil {
			return fmt.Errorf("failed to load purchase lines: %w", err)
		}

		// Resolve every line before touching any stock, so strict mode can
		// reject the whole confirmation with zero changes
		resolved := make([]lineResolution, 0, len(lines))
		var unresolved []string
		for i := range lines {
			res, err := s.resolveLine(tx, doc.SupplierID, &lines[i])
			if err != nil {
				return err
			}
			if res.variantID == 0 {
				unresolved = append(unresolved, lines[i].SupplierSKU)
				continue
			}
			resolved = append(resolved, res)
		}
		if len(unresolved) > 0 && s.strict {
			return &StrictLinkageError{SKUs: unresolved}
		}

		for _, res := range resolved {
			delta, err := s.applyLine(tx, res, debug, log)
			if err != nil {
				return err
			}
			result.AppliedDeltas = append(result.AppliedDeltas, *delta)
		}

		// Persist the outcome on the document for idempotent replay
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode confirmation result: %w", err)
		}
		return markConfirmed(tx, doc.ID, string(encoded))
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyConfirmed {
		log.Info("Purchase confirmed",
			zap.String("purchase_uuid", purchaseUUID),
			zap.Int("lines_applied", len(result.AppliedDeltas)))
	}

	return result, nil
}

// Cancel transitions a draft document to cancelled. Confirmed documents
// never go back; post-confirm corrections happen through returns.
func (s *Service) Cancel(ctx context.Context, purchaseUUID string) error {
	result := s.db.WithContext(ctx).Model(&model.PurchaseDocument{}).
		Where("uuid = ? AND status = ?", purchaseUUID, model.PurchaseStatusDraft).
		Update("status", model.PurchaseStatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("failed to cancel purchase document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var doc model.PurchaseDocument
		err := s.db.WithContext(ctx).Where("uuid = ?", purchaseUUID).First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load purchase document: %w", err)
		}
		return ErrNotDraft
	}
	return nil
}

// markConfirmed flips a draft document to confirmed inside the caller's
// transaction. Only the draft state may transition; zero rows affected means
// a concurrent confirmation slipped in after the document was loaded, and
// the whole transaction rolls back so stock is applied exactly once.
func markConfirmed(tx *gorm.DB, docID uint, encodedResult string) error {
	result := tx.Model(&model.PurchaseDocument{}).
		Where("id = ? AND status = ?", docID, model.PurchaseStatusDraft).
		Updates(map[string]interface{}{
			"status":       model.PurchaseStatusConfirmed,
			"confirmed_at": time.Now(),
			"result":       encodedResult,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to confirm purchase document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotDraft
	}
	return nil
}

// lineResolution carries a resolved line through the two confirmation passes
type lineResolution struct {
	line            *model.PurchaseLine
	variantID       uint
	supplierProduct *model.SupplierProduct
}

// resolveLine finds the internal variant for a line: the explicit link if
// present, otherwise the (supplier_id, supplier_sku) supplier product.
// A zero variantID in the result means the line stays unresolved.
func (s *Service) resolveLine(tx *gorm.DB, supplierID uint, line *model.PurchaseLine) (lineResolution, error) {
	res := lineResolution{line: line}

	var sp model.SupplierProduct
	err := tx.Where("supplier_id = ? AND supplier_product_id = ?", supplierID, line.SupplierSKU).
		First(&sp).Error
	if err == nil {
		res.supplierProduct = &sp
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return res, fmt.Errorf("failed to resolve line %q: %w", line.SupplierSKU, err)
	}

	if line.VariantID != nil {
		res.variantID = *line.VariantID
		return res, nil
	}

	if res.supplierProduct != nil && res.supplierProduct.VariantID != nil {
		res.variantID = *res.supplierProduct.VariantID
		// Remember the auto-link on the line itself
		if err := tx.Model(line).Updates(map[string]interface{}{
			"variant_id": res.variantID,
			"linked":     true,
		}).Error; err != nil {
			return res, fmt.Errorf("failed to link line %q: %w", line.SupplierSKU, err)
		}
	}

	return res, nil
}

// applyLine applies one resolved line: the stock delta on the variant and,
// for a valid purchase price, an entry in the price ledger
func (s *Service) applyLine(tx *gorm.DB, res lineResolution, debug bool, log *zap.Logger) (*AppliedDelta, error) {
	var variant model.ProductVariant
	if err := tx.First(&variant, res.variantID).Error; err != nil {
		return nil, fmt.Errorf("failed to load variant %d: %w", res.variantID, err)
	}

	delta := res.line.Quantity
	oldStock := variant.Stock
	newStock := oldStock + delta

	if err := tx.Model(&variant).Update("stock", gorm.Expr("stock + ?", delta)).Error; err != nil {
		return nil, fmt.Errorf("failed to apply stock delta to variant %d: %w", variant.ID, err)
	}

	if debug {
		log.Debug("Stock delta applied",
			zap.Uint("variant_id", variant.ID),
			zap.String("supplier_sku", res.line.SupplierSKU),
			zap.Int("old_stock", oldStock),
			zap.Int("delta", delta),
			zap.Int("new_stock", newStock))
	}

	if res.supplierProduct != nil && res.line.UnitCost > 0 {
		entry := model.PriceHistoryEntry{
			SupplierProductID: res.supplierProduct.ID,
			OldPrice:          res.supplierProduct.Price,
			NewPrice:          res.line.UnitCost,
			DeltaPercent:      purchaseDelta(res.supplierProduct.Price, res.line.UnitCost),
			Source:            "purchase",
			CreatedAt:         time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("failed to append price history for line %q: %w", res.line.SupplierSKU, err)
		}
	}

	return &AppliedDelta{
		LineID:      res.line.ID,
		SupplierSKU: res.line.SupplierSKU,
		VariantID:   variant.ID,
		OldStock:    oldStock,
		Delta:       delta,
		NewStock:    newStock,
	}, nil
}

// purchaseDelta mirrors the import-side percentage rule: undefined when
// the previous price is zero
func purchaseDelta(oldPrice, newPrice float64) *float64 {
	if oldPrice == 0 {
		return nil
	}
	delta := (newPrice - oldPrice) / oldPrice * 100
	return &delta
}
