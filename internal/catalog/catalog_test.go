package catalog

import (
	"context"
	"testing"

	"procurement-service/internal/model"
	"procurement-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func TestNextSKU(t *testing.T) {
	t.Run("starts the sequence on an empty catalog", func(t *testing.T) {
		db := newTestDB(t)
		sku, err := NextSKU(db)
		require.NoError(t, err)
		assert.Equal(t, "NG-000001", sku)
	})

	t.Run("continues from the highest existing suffix", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.Create(&model.Product{SKU: "NG-000041", Name: "Pala", IsActive: true}).Error)
		require.NoError(t, db.Create(&model.Product{SKU: "NG-000007", Name: "Rastrillo", IsActive: true}).Error)

		sku, err := NextSKU(db)
		require.NoError(t, err)
		assert.Equal(t, "NG-000042", sku)
	})

	t.Run("soft-deleted products still hold their place", func(t *testing.T) {
		db := newTestDB(t)
		product := model.Product{SKU: "NG-000010", Name: "Pala", IsActive: true}
		require.NoError(t, db.Create(&product).Error)
		require.NoError(t, db.Delete(&product).Error)

		sku, err := NextSKU(db)
		require.NoError(t, err)
		assert.Equal(t, "NG-000011", sku)
	})

	t.Run("foreign SKU namespaces are ignored", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.Create(&model.Product{SKU: "EXT-999999", Name: "Importado", IsActive: true}).Error)

		sku, err := NextSKU(db)
		require.NoError(t, err)
		assert.Equal(t, "NG-000001", sku)
	})
}

func TestEnsureCategoryPath(t *testing.T) {
	t.Run("creates missing nodes parent-first", func(t *testing.T) {
		db := newTestDB(t)
		leafID, err := EnsureCategoryPath(db, "Jardin > Macetas > Terracota")
		require.NoError(t, err)
		require.NotNil(t, leafID)

		var leaf model.Category
		require.NoError(t, db.First(&leaf, *leafID).Error)
		assert.Equal(t, "Terracota", leaf.Name)
		require.NotNil(t, leaf.ParentID)

		var mid model.Category
		require.NoError(t, db.First(&mid, *leaf.ParentID).Error)
		assert.Equal(t, "Macetas", mid.Name)
		require.NotNil(t, mid.ParentID)

		var root model.Category
		require.NoError(t, db.First(&root, *mid.ParentID).Error)
		assert.Equal(t, "Jardin", root.Name)
		assert.Nil(t, root.ParentID)
	})

	t.Run("reuses existing nodes instead of duplicating", func(t *testing.T) {
		db := newTestDB(t)
		first, err := EnsureCategoryPath(db, "Jardin > Macetas")
		require.NoError(t, err)
		second, err := EnsureCategoryPath(db, "Jardin > Macetas")
		require.NoError(t, err)
		assert.Equal(t, *first, *second)

		var count int64
		db.Model(&model.Category{}).Count(&count)
		assert.Equal(t, int64(2), count)
	})

	t.Run("same name under different parents is a different node", func(t *testing.T) {
		db := newTestDB(t)
		a, err := EnsureCategoryPath(db, "Jardin > Accesorios")
		require.NoError(t, err)
		b, err := EnsureCategoryPath(db, "Cocina > Accesorios")
		require.NoError(t, err)
		assert.NotEqual(t, *a, *b)
	})

	t.Run("empty path resolves to nil", func(t *testing.T) {
		db := newTestDB(t)
		id, err := EnsureCategoryPath(db, "")
		require.NoError(t, err)
		assert.Nil(t, id)

		id, err = EnsureCategoryPath(db, "  >  ")
		require.NoError(t, err)
		assert.Nil(t, id)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)

	require.NoError(t, db.Create(&model.Product{SKU: "NG-000001", Name: "Maceta terracota", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.Product{SKU: "NG-000002", Name: "Maceta plastica", IsActive: true}).Error)
	require.NoError(t, db.Create(&model.Product{SKU: "NG-000003", Name: "Sustrato premium", IsActive: true}).Error)

	t.Run("matches substrings case-insensitively", func(t *testing.T) {
		products, err := svc.Search(ctx, "MACETA", 0)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Maceta terracota", products[0].Name)
	})

	t.Run("empty query lists everything up to the limit", func(t *testing.T) {
		products, err := svc.Search(ctx, "", 2)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("no match yields an empty slice", func(t *testing.T) {
		products, err := svc.Search(ctx, "taladro", 0)
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}
