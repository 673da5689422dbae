package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"procurement-service/internal/importer"
	"procurement-service/internal/mapping"
	"procurement-service/internal/middleware"
	"procurement-service/internal/model"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ImportRequest defines the JSON upload payload: raw rows straight from
// the extraction collaborator, untouched by any normalization
type ImportRequest struct {
	SupplierID uint                `json:"supplier_id" validate:"required"`
	Filename   string              `json:"filename"`
	Rows       []map[string]string `json:"rows"`
	DryRun     *bool               `json:"dry_run"`
}

// CreateImport ingests a price list for a supplier. Accepts either a JSON
// body with raw rows or a multipart form with an XLSX file. The job is
// always staged as a dry run first; dry_run=false commits it immediately.
func CreateImport(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating import job")

	userID, _ := middleware.GetUserIDFromContext(c)

	var req ImportRequest
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		if err := bindMultipartImport(c, &req); err != nil {
			log.Error("Invalid upload", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	} else {
		if err := c.Bind(&req); err != nil {
			log.Error("Invalid request data", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
		}
	}

	if req.SupplierID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "supplier_id is required"})
	}
	if len(req.Rows) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no rows to import"})
	}

	log.Info("Import upload received",
		zap.Uint("supplier_id", req.SupplierID),
		zap.String("filename", req.Filename),
		zap.Int("rows", len(req.Rows)))

	job, err := importSvc.RunDryRun(c.Request().Context(), req.SupplierID, req.Filename, req.Rows, userID)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrSupplierNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
		case errors.Is(err, mapping.ErrMappingNotFound):
			log.Error("Supplier mapping missing", zap.Error(err))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		default:
			log.Error("Dry run failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process import"})
		}
	}

	prometheus.RecordRowsClassified(model.RowStatusNew, job.NewCount)
	prometheus.RecordRowsClassified(model.RowStatusChanged, job.ChangedCount)
	prometheus.RecordRowsClassified(model.RowStatusUnchanged, job.UnchangedCount)
	prometheus.RecordRowsClassified(model.RowStatusError, job.ErrorCount)
	prometheus.RecordRowsClassified(model.RowStatusDuplicateInFile, job.DuplicateCount)
	prometheus.RecordImportJob("dry_run")

	// dry_run=false means stage and commit in one call
	if req.DryRun != nil && !*req.DryRun {
		result, err := commitEng.Commit(c.Request().Context(), job.UUID)
		if err != nil {
			return commitErrorResponse(c, job.UUID, err)
		}
		prometheus.RecordImportJob("committed")
		prometheus.PriceChangesCounter.Add(float64(result.PriceChanges))
		return c.JSON(http.StatusCreated, echo.Map{"job": job, "commit": result})
	}

	return c.JSON(http.StatusCreated, job)
}

// PreviewImport returns one page of a job's classified rows plus summary counts
func PreviewImport(c echo.Context) error {
	log := logger.FromContext(c)
	jobUUID := c.Param("id")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = importCfg.DefaultPageSize
	}
	statusFilter := c.QueryParam("status")

	result, err := jobStore.Preview(c.Request().Context(), jobUUID, statusFilter, page, pageSize)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrJobNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "import job not found"})
		case errors.Is(err, importer.ErrInvalidStatusFilter):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			log.Error("Preview failed", zap.String("job_uuid", jobUUID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load preview"})
		}
	}

	return c.JSON(http.StatusOK, result)
}

// CommitImport transactionally applies a dry-run job's accepted rows
func CommitImport(c echo.Context) error {
	log := logger.FromContext(c)
	jobUUID := c.Param("id")
	log.Info("Committing import job", zap.String("job_uuid", jobUUID))

	result, err := commitEng.Commit(c.Request().Context(), jobUUID)
	if err != nil {
		return commitErrorResponse(c, jobUUID, err)
	}

	prometheus.RecordImportJob("committed")
	prometheus.PriceChangesCounter.Add(float64(result.PriceChanges))
	log.Info("Import job committed",
		zap.String("job_uuid", jobUUID),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("price_changes", result.PriceChanges))
	return c.JSON(http.StatusOK, result)
}

// AcceptLinkRequest picks a canonical product for an unlinked row
type AcceptLinkRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}

// AcceptImportRowLink records an operator-accepted fuzzy-match candidate
// on a dry-run row; the link is applied when the job commits
func AcceptImportRowLink(c echo.Context) error {
	log := logger.FromContext(c)
	jobUUID := c.Param("id")

	rowIndex, err := strconv.Atoi(c.Param("row_index"))
	if err != nil || rowIndex < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid row index"})
	}

	var req AcceptLinkRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	err = jobStore.AcceptLink(c.Request().Context(), jobUUID, rowIndex, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrJobNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "import job not found"})
		case errors.Is(err, importer.ErrAlreadyCommitted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "import job already committed"})
		default:
			log.Error("Failed to accept link",
				zap.String("job_uuid", jobUUID),
				zap.Int("row_index", rowIndex),
				zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	log.Info("Row link accepted",
		zap.String("job_uuid", jobUUID),
		zap.Int("row_index", rowIndex),
		zap.Uint("product_id", req.ProductID))
	return c.JSON(http.StatusOK, echo.Map{"message": "link accepted"})
}

// bindMultipartImport extracts supplier id and XLSX rows from a multipart upload
func bindMultipartImport(c echo.Context, req *ImportRequest) error {
	supplierID, err := strconv.ParseUint(c.FormValue("supplier_id"), 10, 32)
	if err != nil {
		return errors.New("supplier_id form value is required")
	}
	req.SupplierID = uint(supplierID)

	if dryRun := c.FormValue("dry_run"); dryRun != "" {
		parsed, err := strconv.ParseBool(dryRun)
		if err == nil {
			req.DryRun = &parsed
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errors.New("file upload is required")
	}
	req.Filename = fileHeader.Filename

	f, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := mapping.ParseWorkbook(f)
	if err != nil {
		return err
	}
	req.Rows = rows
	return nil
}

// commitErrorResponse maps commit failures to structured HTTP responses
func commitErrorResponse(c echo.Context, jobUUID string, err error) error {
	log := logger.FromContext(c)

	var conflict *importer.ConflictError
	switch {
	case errors.Is(err, importer.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "import job not found"})
	case errors.Is(err, importer.ErrAlreadyCommitted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "import job already committed"})
	case errors.Is(err, importer.ErrJobNotReady):
		return c.JSON(http.StatusConflict, echo.Map{"error": "import job is not classified yet"})
	case errors.As(err, &conflict):
		prometheus.CommitConflictCounter.Inc()
		log.Warn("Commit conflict",
			zap.String("job_uuid", jobUUID),
			zap.Int("row_index", conflict.RowIndex),
			zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "commit conflict",
			"row_index": conflict.RowIndex,
		})
	default:
		log.Error("Commit failed", zap.String("job_uuid", jobUUID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to commit import"})
	}
}
