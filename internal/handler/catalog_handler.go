package handler

import (
	"errors"
	"net/http"
	"strconv"

	"procurement-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListProducts is the read-only canonical catalog lookup: optional name
// substring via q, capped by limit
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	query := c.QueryParam("q")

	products, err := catalogSvc.Search(c.Request().Context(), query, limit)
	if err != nil {
		log.Error("Failed to search products", zap.String("q", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct returns a single canonical product by id
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	product, err := catalogSvc.GetProduct(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to load product", zap.Uint64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve product"})
	}

	return c.JSON(http.StatusOK, product)
}
