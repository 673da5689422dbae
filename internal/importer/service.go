package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"procurement-service/internal/catalog"
	"procurement-service/internal/mapping"
	"procurement-service/internal/match"
	"procurement-service/internal/model"
	"procurement-service/pkg/config"
	"procurement-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSupplierNotFound is returned when a dry run references an unknown supplier
var ErrSupplierNotFound = errors.New("supplier not found")

// Service runs the dry-run half of the import pipeline: normalize rows,
// classify them against current DB state, attach fuzzy candidates and
// persist the job for operator review. Nothing in the catalog or price
// ledger is touched until the job is committed.
type Service struct {
	db       *gorm.DB
	registry *mapping.Registry
	matcher  *match.Matcher
	catalog  *catalog.Service
	store    *Store
	cfg      config.ImportConfig
}

// NewService wires the dry-run pipeline
func NewService(db *gorm.DB, registry *mapping.Registry, matcher *match.Matcher, catalogSvc *catalog.Service, cfg config.ImportConfig) *Service {
	return &Service{
		db:       db,
		registry: registry,
		matcher:  matcher,
		catalog:  catalogSvc,
		store:    NewStore(db),
		cfg:      cfg,
	}
}

// Store exposes the underlying job store for preview queries
func (s *Service) Store() *Store {
	return s.store
}

// RunDryRun normalizes and classifies rawRows for a supplier. The job is
// staged as pending first and finalized as a dry run once every row is
// classified. The supplier's mapping is resolved up front; a missing
// mapping rejects the whole import before any row is processed.
func (s *Service) RunDryRun(ctx context.Context, supplierID uint, filename string, rawRows []map[string]string, createdBy uint) (*model.ImportJob, error) {
	log := logger.FromGoContext(ctx)

	var supplier model.Supplier
	err := s.db.WithContext(ctx).First(&supplier, supplierID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrSupplierNotFound, supplierID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	m, err := s.registry.Lookup(supplier.MappingName)
	if err != nil {
		// Fatal config error: rejected before any row is processed
		return nil, err
	}

	existing, err := s.loadSupplierProducts(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	var snapshot []model.Product
	if s.cfg.Suggestions || s.cfg.AutoCreate {
		snapshot, err = s.catalog.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
	}

	// The job shell goes in first as pending; it only becomes a committable
	// dry run once every row has been classified and stored
	job := &model.ImportJob{
		UUID:       uuid.New().String(),
		SupplierID: supplierID,
		Filename:   filename,
		Status:     model.JobStatusPending,
		TotalRows:  len(rawRows),
		CreatedBy:  createdBy,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	classifier := NewClassifier()
	seen := make(map[string]bool)
	rows := make([]model.ImportJobRow, 0, len(rawRows))

	for i, raw := range rawRows {
		normalized, missing := mapping.Normalize(m, raw)
		verdict := classifier.Classify(normalized, missing, existing[normalized.SupplierSKU], seen)

		row := model.ImportJobRow{
			RowIndex:     i,
			SupplierSKU:  normalized.SupplierSKU,
			Title:        normalized.Title,
			Brand:        normalized.Brand,
			CategoryPath: normalized.CategoryPath,
			Currency:     normalized.Currency,
			Price:        verdict.Price,
			MinQty:       verdict.MinQty,
			Status:       verdict.Status,
			ErrorTag:     verdict.ErrorTag,
			Diff:         EncodeDiff(verdict.Diff),
		}

		// Fuzzy matching only applies to rows with no equivalence yet
		if s.matchable(verdict.Status, existing[normalized.SupplierSKU]) {
			candidates := s.matcher.Match(normalized.Title, snapshot)
			if len(candidates) > 0 {
				encoded, _ := json.Marshal(candidates)
				row.Candidates = string(encoded)
			}
			if len(candidates) == 1 && s.cfg.AutoCreate {
				row.ProductID = &candidates[0].ProductID
				row.AutoLink = true
			}
		}

		switch verdict.Status {
		case model.RowStatusNew:
			job.NewCount++
		case model.RowStatusChanged:
			job.ChangedCount++
		case model.RowStatusUnchanged:
			job.UnchangedCount++
		case model.RowStatusError:
			job.ErrorCount++
		case model.RowStatusDuplicateInFile:
			job.DuplicateCount++
		}

		rows = append(rows, row)
	}

	if err := s.store.FinalizeDryRun(ctx, job, rows); err != nil {
		return nil, err
	}

	log.Info("Dry run completed",
		zap.String("job_uuid", job.UUID),
		zap.Uint("supplier_id", supplierID),
		zap.Int("total", job.TotalRows),
		zap.Int("new", job.NewCount),
		zap.Int("changed", job.ChangedCount),
		zap.Int("unchanged", job.UnchangedCount),
		zap.Int("errors", job.ErrorCount),
		zap.Int("duplicates", job.DuplicateCount))

	return job, nil
}

// matchable reports whether fuzzy matching applies: suggestions enabled and
// the row has no canonical link through its supplier product yet
func (s *Service) matchable(status string, existing *model.SupplierProduct) bool {
	if !s.cfg.Suggestions && !s.cfg.AutoCreate {
		return false
	}
	if status != model.RowStatusNew && status != model.RowStatusChanged {
		return false
	}
	return existing == nil || existing.ProductID == nil
}

// loadSupplierProducts preloads every supplier product of the supplier
// keyed by supplier_product_id, so classification is one map lookup per row
func (s *Service) loadSupplierProducts(ctx context.Context, supplierID uint) (map[string]*model.SupplierProduct, error) {
	var items []model.SupplierProduct
	if err := s.db.WithContext(ctx).Where("supplier_id = ?", supplierID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load supplier products: %w", err)
	}
	byKey := make(map[string]*model.SupplierProduct, len(items))
	for i := range items {
		byKey[items[i].SupplierProductID] = &items[i]
	}
	return byKey, nil
}
