package handlers

import (
	"net/http"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetImportTemplateHandler generates and serves the Excel template
// GET /api/import/partite/template
func GetImportTemplateHandler(c echo.Context) error {
	buf, err := services.GeneratePartiteImportTemplate()
	if err != nil {
		return serviceError(c, err)
	}

	c.Response().Header().Set("Content-Disposition", "attachment; filename=partite_import_template.xlsx")
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportPartiteHandler registers the partite of an uploaded workbook.
// Each partita succeeds or fails on its own; the summary lists the failures.
// POST /api/comuni/:id/import/partite
func ImportPartiteHandler(c echo.Context) error {
	comuneID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest("no file uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return badRequest("failed to open file")
	}
	defer src.Close()

	result, err := services.ImportPartiteFromExcel(c.Request().Context(), db.DB, middleware.GetActorContext(c),
		comuneID, src, getConfig(c).ImportMaxRows)
	if err != nil {
		if services.ErrorKind(err) == "" {
			return badRequest(err.Error())
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
