package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"procurement-service/internal/model"

	"gorm.io/gorm"
)

// SKUPrefix is the canonical SKU namespace; SKUs look like NG-000123.
const SKUPrefix = "NG-"

// Service is the read-only query surface over the canonical catalog,
// consumed by the fuzzy matcher and the catalog handler.
type Service struct {
	db *gorm.DB
}

// NewService creates a catalog query service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetProduct returns a product by id
func (s *Service) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// Search returns products whose name contains the query, case-insensitively
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 50
	}

	var products []model.Product
	tx := s.db.WithContext(ctx).Order("id")
	if strings.TrimSpace(query) != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(query))+"%")
	}
	if err := tx.Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Snapshot loads the full active catalog, ordered by id. The matcher works
// on one snapshot per dry run so repeated calls stay deterministic.
func (s *Service) Snapshot(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}
	return products, nil
}

// NextSKU assigns the next canonical SKU inside the caller's transaction.
// The sequence is derived from the highest numeric suffix already present,
// soft-deleted products included, so it never moves backwards.
func NextSKU(tx *gorm.DB) (string, error) {
	var maxSeq int64
	err := tx.Model(&model.Product{}).Unscoped().
		Where("sku LIKE ?", SKUPrefix+"%").
		Select("COALESCE(MAX(CAST(SUBSTR(sku, ?) AS INTEGER)), 0)", len(SKUPrefix)+1).
		Scan(&maxSeq).Error
	if err != nil {
		return "", fmt.Errorf("failed to read SKU sequence: %w", err)
	}
	return fmt.Sprintf("%s%06d", SKUPrefix, maxSeq+1), nil
}

// EnsureCategoryPath resolves a "Parent > Child > Leaf" path to the leaf
// category id, creating missing nodes parent-first inside the caller's
// transaction. An empty path resolves to nil.
func EnsureCategoryPath(tx *gorm.DB, path string) (*uint, error) {
	var parentID *uint
	for _, segment := range strings.Split(path, ">") {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}

		var category model.Category
		query := tx.Where("name = ?", name)
		if parentID == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", *parentID)
		}

		err := query.First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = model.Category{Name: name, ParentID: parentID}
			if err := tx.Create(&category).Error; err != nil {
				return nil, fmt.Errorf("failed to create category %q: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}

		id := category.ID
		parentID = &id
	}
	return parentID, nil
}
