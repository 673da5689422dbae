package handler

import (
	"encoding/json"
	"fmt"
	"os"

	"procurement-service/internal/catalog"
	"procurement-service/internal/importer"
	"procurement-service/internal/mapping"
	"procurement-service/internal/match"
	"procurement-service/internal/purchase"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"
)

// Engine singletons shared by the handlers, wired once at startup
var (
	registry    *mapping.Registry
	catalogSvc  *catalog.Service
	importSvc   *importer.Service
	jobStore    *importer.Store
	commitEng   *importer.Engine
	purchaseSvc *purchase.Service
	importCfg   config.ImportConfig
)

// Init wires the import and confirmation engines against the database.
// Mapping strategies are resolved here, at startup; a broken mappings file
// fails the boot instead of failing the first import.
func Init(appConfig *config.Config) error {
	db := database.GetDB()
	importCfg = appConfig.Import

	registry = mapping.NewRegistry()
	if appConfig.Import.MappingsFile != "" {
		if err := loadMappings(registry, appConfig.Import.MappingsFile); err != nil {
			return err
		}
	}

	scorer := match.NewTokenSortScorer()
	matcher := match.NewMatcher(scorer, appConfig.Import.MatchThreshold, appConfig.Import.MatchTopK)

	catalogSvc = catalog.NewService(db)
	importSvc = importer.NewService(db, registry, matcher, catalogSvc, appConfig.Import)
	jobStore = importSvc.Store()
	commitEng = importer.NewEngine(db, appConfig.Import)
	purchaseSvc = purchase.NewService(db, appConfig.Import.StrictConfirm)

	return nil
}

// loadMappings registers supplier mapping strategies from a JSON file
func loadMappings(r *mapping.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read mappings file %q: %w", path, err)
	}
	var mappings []mapping.Mapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("failed to parse mappings file %q: %w", path, err)
	}
	for _, m := range mappings {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}
