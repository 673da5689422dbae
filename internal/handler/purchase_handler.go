package handler

import (
	"errors"
	"net/http"
	"strconv"

	"procurement-service/internal/middleware"
	"procurement-service/internal/model"
	"procurement-service/internal/purchase"
	"procurement-service/pkg/database"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurchaseLineRequest is one line of a purchase document
type PurchaseLineRequest struct {
	SupplierSKU string  `json:"supplier_sku" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitCost    float64 `json:"unit_cost"`
	VariantID   *uint   `json:"variant_id"`
}

// PurchaseRequest defines the structure for purchase document creation
type PurchaseRequest struct {
	SupplierID uint                  `json:"supplier_id" validate:"required"`
	Reference  string                `json:"reference"`
	Lines      []PurchaseLineRequest `json:"lines" validate:"required"`
}

// CreatePurchase creates a draft purchase document with its lines
func CreatePurchase(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating purchase document")

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.SupplierID == 0 || len(req.Lines) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "supplier_id and lines are required"})
	}
	for _, line := range req.Lines {
		if line.SupplierSKU == "" || line.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every line needs a supplier_sku and a positive quantity"})
		}
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	doc := model.PurchaseDocument{
		UUID:       uuid.New().String(),
		SupplierID: req.SupplierID,
		Reference:  req.Reference,
		Status:     model.PurchaseStatusDraft,
		CreatedBy:  userID,
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		for _, line := range req.Lines {
			l := model.PurchaseLine{
				DocumentID:  doc.ID,
				SupplierSKU: line.SupplierSKU,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost,
				VariantID:   line.VariantID,
				Linked:      line.VariantID != nil,
			}
			if err := tx.Create(&l).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create purchase document", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create purchase document"})
	}

	log.Info("Purchase document created",
		zap.String("purchase_uuid", doc.UUID),
		zap.Uint("supplier_id", doc.SupplierID),
		zap.Int("lines", len(req.Lines)))
	return c.JSON(http.StatusCreated, doc)
}

// GetPurchase returns a purchase document with its lines
func GetPurchase(c echo.Context) error {
	log := logger.FromContext(c)
	purchaseUUID := c.Param("id")

	var doc model.PurchaseDocument
	err := database.GetDB().Where("uuid = ?", purchaseUUID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase document not found"})
	}
	if err != nil {
		log.Error("Failed to load purchase document", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load purchase document"})
	}

	var lines []model.PurchaseLine
	if err := database.GetDB().Where("document_id = ?", doc.ID).Order("id").Find(&lines).Error; err != nil {
		log.Error("Failed to load purchase lines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load purchase lines"})
	}

	return c.JSON(http.StatusOK, echo.Map{"document": doc, "lines": lines})
}

// ConfirmPurchase applies a draft document's stock deltas. Confirming an
// already-confirmed document replays the original result.
func ConfirmPurchase(c echo.Context) error {
	log := logger.FromContext(c)
	purchaseUUID := c.Param("id")

	debug := false
	if v := c.QueryParam("debug"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err == nil {
			debug = parsed
		}
	}

	log.Info("Confirming purchase", zap.String("purchase_uuid", purchaseUUID), zap.Bool("debug", debug))

	result, err := purchaseSvc.Confirm(c.Request().Context(), purchaseUUID, debug)
	if err != nil {
		var strict *purchase.StrictLinkageError
		switch {
		case errors.Is(err, purchase.ErrPurchaseNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase document not found"})
		case errors.Is(err, purchase.ErrPurchaseCancelled):
			prometheus.RecordConfirmation("rejected")
			return c.JSON(http.StatusConflict, echo.Map{"error": "purchase document is cancelled"})
		case errors.Is(err, purchase.ErrNotDraft):
			// Lost to a concurrent confirmation; a retry replays the stored result
			return c.JSON(http.StatusConflict, echo.Map{"error": "purchase document was confirmed concurrently, retry"})
		case errors.As(err, &strict):
			prometheus.RecordConfirmation("strict_rejected")
			log.Warn("Confirmation rejected in strict mode",
				zap.String("purchase_uuid", purchaseUUID),
				zap.Strings("unresolved_skus", strict.SKUs))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":           "unresolved lines in strict mode",
				"unresolved_skus": strict.SKUs,
			})
		default:
			log.Error("Confirmation failed", zap.String("purchase_uuid", purchaseUUID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to confirm purchase"})
		}
	}

	if result.AlreadyConfirmed {
		prometheus.RecordConfirmation("replayed")
	} else {
		prometheus.RecordConfirmation("confirmed")
		prometheus.StockDeltaCounter.Add(float64(len(result.AppliedDeltas)))
	}

	return c.JSON(http.StatusOK, result)
}

// CancelPurchase transitions a draft document to cancelled
func CancelPurchase(c echo.Context) error {
	log := logger.FromContext(c)
	purchaseUUID := c.Param("id")

	err := purchaseSvc.Cancel(c.Request().Context(), purchaseUUID)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrPurchaseNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase document not found"})
		case errors.Is(err, purchase.ErrNotDraft):
			return c.JSON(http.StatusConflict, echo.Map{"error": "only draft documents can be cancelled"})
		default:
			log.Error("Cancellation failed", zap.String("purchase_uuid", purchaseUUID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to cancel purchase"})
		}
	}

	log.Info("Purchase cancelled", zap.String("purchase_uuid", purchaseUUID))
	return c.JSON(http.StatusOK, echo.Map{"message": "purchase cancelled"})
}
