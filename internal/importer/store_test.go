package importer

import (
	"context"
	"testing"

	"procurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedJob persists a dry-run job with n rows cycling through the given
// statuses, returning the job for preview queries
func seedJob(t *testing.T, svc *Service, supplierID uint, rawRows []map[string]string) *model.ImportJob {
	t.Helper()
	job, err := svc.RunDryRun(context.Background(), supplierID, "lista.xlsx", rawRows, 1)
	require.NoError(t, err)
	return job
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	supplier := seedSupplier(t, db)
	svc := newTestService(t, db, testConfig())

	rawRows := []map[string]string{
		{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
		{"codigo": "A2", "nombre": "Sustrato", "precio": "250"},
		{"codigo": "A3", "nombre": "Pala", "precio": "bad"},
		{"codigo": "A1", "nombre": "Maceta", "precio": "999"},
		{"codigo": "A4", "nombre": "Rastrillo", "precio": "80"},
	}
	job := seedJob(t, svc, supplier.ID, rawRows)
	store := svc.Store()

	t.Run("rows come back in row_index order", func(t *testing.T) {
		result, err := store.Preview(ctx, job.UUID, "", 1, 50)
		require.NoError(t, err)
		require.Len(t, result.Items, 5)
		for i, item := range result.Items {
			assert.Equal(t, i, item.RowIndex)
		}
		assert.Equal(t, int64(5), result.Total)
		assert.Equal(t, 1, result.Pages)
	})

	t.Run("summary reflects classification counts", func(t *testing.T) {
		result, err := store.Preview(ctx, job.UUID, "", 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Summary[model.RowStatusNew])
		assert.Equal(t, 1, result.Summary[model.RowStatusError])
		assert.Equal(t, 1, result.Summary[model.RowStatusDuplicateInFile])
	})

	t.Run("status filter narrows items but not summary", func(t *testing.T) {
		result, err := store.Preview(ctx, job.UUID, model.RowStatusError, 1, 50)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "A3", result.Items[0].SupplierSKU)
		assert.Equal(t, int64(1), result.Total)
		assert.Equal(t, 3, result.Summary[model.RowStatusNew])
	})

	t.Run("pagination keeps ordering stable across pages", func(t *testing.T) {
		page1, err := store.Preview(ctx, job.UUID, "", 1, 2)
		require.NoError(t, err)
		page2, err := store.Preview(ctx, job.UUID, "", 2, 2)
		require.NoError(t, err)
		page3, err := store.Preview(ctx, job.UUID, "", 3, 2)
		require.NoError(t, err)

		assert.Equal(t, 3, page1.Pages)
		require.Len(t, page1.Items, 2)
		require.Len(t, page2.Items, 2)
		require.Len(t, page3.Items, 1)
		assert.Equal(t, 0, page1.Items[0].RowIndex)
		assert.Equal(t, 2, page2.Items[0].RowIndex)
		assert.Equal(t, 4, page3.Items[0].RowIndex)
	})

	t.Run("invalid status filter is rejected", func(t *testing.T) {
		_, err := store.Preview(ctx, job.UUID, "bogus", 1, 50)
		require.ErrorIs(t, err, ErrInvalidStatusFilter)
	})

	t.Run("unknown job returns not found", func(t *testing.T) {
		_, err := store.Preview(ctx, "no-such-uuid", "", 1, 50)
		require.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestAcceptLink(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the operator's choice on the row", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		svc := newTestService(t, db, testConfig())
		job := seedJob(t, svc, supplier.ID, []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
		})

		product := model.Product{SKU: "NG-000001", Name: "Maceta terracota", IsActive: true}
		require.NoError(t, db.Create(&product).Error)

		require.NoError(t, svc.Store().AcceptLink(ctx, job.UUID, 0, product.ID))

		var row model.ImportJobRow
		require.NoError(t, db.Where("job_id = ? AND row_index = ?", job.ID, 0).First(&row).Error)
		require.NotNil(t, row.ProductID)
		assert.Equal(t, product.ID, *row.ProductID)
		assert.False(t, row.AutoLink)
	})

	t.Run("committed jobs are immutable", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		svc := newTestService(t, db, testConfig())
		job := seedJob(t, svc, supplier.ID, []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
		})

		engine := NewEngine(db, testConfig())
		_, err := engine.Commit(ctx, job.UUID)
		require.NoError(t, err)

		err = svc.Store().AcceptLink(ctx, job.UUID, 0, 1)
		require.ErrorIs(t, err, ErrAlreadyCommitted)
	})

	t.Run("unknown row index fails", func(t *testing.T) {
		db := newTestDB(t)
		supplier := seedSupplier(t, db)
		svc := newTestService(t, db, testConfig())
		job := seedJob(t, svc, supplier.ID, []map[string]string{
			{"codigo": "A1", "nombre": "Maceta", "precio": "100"},
		})

		err := svc.Store().AcceptLink(ctx, job.UUID, 42, 1)
		require.Error(t, err)
	})
}
