package importer

import (
	"context"
	"encoding/json"
	"testing"

	"procurement-service/internal/mapping"
	"procurement-service/internal/match"
	"procurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDryRun(t *testing.T) {
	ctx := context.Background()

	t.Run("classification counts add up to input rows", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		svc := newTestService(t, db, testConfig())

		rows := []map[string]string{
			{"codigo": "A1", "nombre": "Maceta 10cm", "precio": "100"},
			{"codigo": "A2", "nombre": "Maceta 12cm", "precio": "120"},
			{"codigo": "A3", "nombre": "Sustrato", "precio": "not-a-price"},
			{"codigo": "A1", "nombre": "Maceta 10cm", "precio": "110"},
			{"nombre": "Sin codigo", "precio": "50"},
		}

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", rows, 1)
		require.NoError(t, err)

		total := job.NewCount + job.ChangedCount + job.UnchangedCount + job.ErrorCount + job.DuplicateCount
		assert.Equal(t, len(rows), total)
		assert.Equal(t, len(rows), job.TotalRows)
		assert.Equal(t, model.JobStatusDryRun, job.Status)

		// The pending shell was finalized on disk too
		var stored model.ImportJob
		require.NoError(t, db.First(&stored, job.ID).Error)
		assert.Equal(t, model.JobStatusDryRun, stored.Status)
		assert.Equal(t, job.NewCount, stored.NewCount)
	})

	t.Run("duplicate key keeps only first occurrence", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		svc := newTestService(t, db, testConfig())

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
			{"codigo": "A1", "nombre": "Maceta", "precio": "110"},
		}, 1)
		require.NoError(t, err)

		var stored []model.ImportJobRow
		require.NoError(t, db.Where("job_id = ?", job.ID).Order("row_index").Find(&stored).Error)
		require.Len(t, stored, 2)
		assert.Equal(t, model.RowStatusNew, stored[0].Status)
		assert.Equal(t, model.RowStatusDuplicateInFile, stored[1].Status)
		assert.Equal(t, 1, job.NewCount)
		assert.Equal(t, 1, job.DuplicateCount)
	})

	t.Run("existing record with same tracked fields is unchanged", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		require.NoError(t, db.Create(&model.SupplierProduct{
			SupplierID:        supplier.ID,
			SupplierProductID: "A1",
			Title:             "Maceta",
			Price:             100,
			MinPurchaseQty:    1,
		}).Error)
		svc := newTestService(t, db, testConfig())

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100", "minimo": "1"},
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, job.UnchangedCount)
	})

	t.Run("price move classifies as changed with diff payload", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		require.NoError(t, db.Create(&model.SupplierProduct{
			SupplierID:        supplier.ID,
			SupplierProductID: "A1",
			Title:             "Maceta",
			Price:             100,
			MinPurchaseQty:    1,
		}).Error)
		svc := newTestService(t, db, testConfig())

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "120", "minimo": "1"},
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, job.ChangedCount)

		var row model.ImportJobRow
		require.NoError(t, db.Where("job_id = ?", job.ID).First(&row).Error)
		var diff map[string]FieldDiff
		require.NoError(t, json.Unmarshal([]byte(row.Diff), &diff))
		require.Contains(t, diff, "price")
	})

	t.Run("fuzzy candidates attach to unlinked rows", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		require.NoError(t, db.Create(&model.Product{SKU: "NG-000001", Name: "Fertilizante liquido 1L", IsActive: true}).Error)
		svc := newTestService(t, db, testConfig())

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "F1", "nombre": "fertilizante liquido 1l", "precio": "300"},
		}, 1)
		require.NoError(t, err)

		var row model.ImportJobRow
		require.NoError(t, db.Where("job_id = ?", job.ID).First(&row).Error)
		require.NotEmpty(t, row.Candidates)

		var candidates []match.Candidate
		require.NoError(t, json.Unmarshal([]byte(row.Candidates), &candidates))
		require.Len(t, candidates, 1)
		assert.GreaterOrEqual(t, candidates[0].Score, 0.87)
		// No auto-create configured, so no link yet
		assert.Nil(t, row.ProductID)
		assert.False(t, row.AutoLink)
	})

	t.Run("single candidate auto-links when auto-create is on", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		product := model.Product{SKU: "NG-000001", Name: "Fertilizante liquido 1L", IsActive: true}
		require.NoError(t, db.Create(&product).Error)

		cfg := testConfig()
		cfg.AutoCreate = true
		svc := newTestService(t, db, cfg)

		job, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "F1", "nombre": "fertilizante liquido 1l", "precio": "300"},
		}, 1)
		require.NoError(t, err)

		var row model.ImportJobRow
		require.NoError(t, db.Where("job_id = ?", job.ID).First(&row).Error)
		require.NotNil(t, row.ProductID)
		assert.Equal(t, product.ID, *row.ProductID)
		assert.True(t, row.AutoLink)
	})

	t.Run("unknown supplier mapping rejects before processing rows", func(t *testing.T) {
		db := newTestDB(t)
		supplier := model.Supplier{Name: "Broken", Code: "BRK", MappingName: "nonexistent"}
		require.NoError(t, db.Create(&supplier).Error)
		svc := newTestService(t, db, testConfig())

		_, err := svc.RunDryRun(ctx, supplier.ID, "lista.xlsx", []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
		}, 1)
		require.ErrorIs(t, err, mapping.ErrMappingNotFound)

		var count int64
		db.Model(&model.ImportJob{}).Count(&count)
		assert.Zero(t, count)
	})
}
