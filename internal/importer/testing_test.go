package importer

import (
	"testing"

	"procurement-service/internal/catalog"
	"procurement-service/internal/mapping"
	"procurement-service/internal/match"
	"procurement-service/internal/model"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"

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

func testConfig() config.ImportConfig {
	return config.ImportConfig{
		MatchThreshold:  0.87,
		MatchTopK:       3,
		Suggestions:     true,
		AutoCreate:      false,
		StrictConfirm:   true,
		DefaultPageSize: 50,
	}
}

// newTestService wires a dry-run service over the given database
func newTestService(t *testing.T, db *gorm.DB, cfg config.ImportConfig) *Service {
	t.Helper()
	matcher := match.NewMatcher(match.NewTokenSortScorer(), cfg.MatchThreshold, cfg.MatchTopK)
	return NewService(db, mapping.NewRegistry(), matcher, catalog.NewService(db), cfg)
}

func seedSupplier(t *testing.T, db *gorm.DB) model.Supplier {
	t.Helper()
	supplier := model.Supplier{Name: "Acme Tools", Code: "ACME", MappingName: "default", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)
	return supplier
}
