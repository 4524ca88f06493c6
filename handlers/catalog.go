package handlers

import (
	"net/http"

	"catasto_app_go/db"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetCatalogOptionsHandler lists the active options of a catalog category
// GET /api/cataloghi/:category
func GetCatalogOptionsHandler(c echo.Context) error {
	options, err := services.GetCatalogOptions(db.DB, c.Param("category"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, options)
}
