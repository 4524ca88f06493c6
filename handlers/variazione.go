package handlers

import (
	"net/http"
	"strconv"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetVariazioneHandler returns one ledger entry
// GET /api/variazioni/:id
func GetVariazioneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	variazione, err := services.GetVariazione(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, variazione)
}

// DeleteVariazioneHandler removes a ledger entry as an administrative correction.
// The origin it closed is reopened.
// DELETE /api/variazioni/:id
func DeleteVariazioneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	result, err := services.DeleteVariazione(c.Request().Context(), db.DB, middleware.GetActorContext(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListPartitaVariazioniHandler lists the variazioni touching a partita
// GET /api/partite/:id/variazioni
func ListPartitaVariazioniHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	variazioni, err := services.ListVariazioniByPartita(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, variazioni)
}

// GetPartitaGenealogyHandler walks ancestors and descendants of a partita
// GET /api/partite/:id/genealogia?profondita=5
func GetPartitaGenealogyHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	depth := 0
	if raw := c.QueryParam("profondita"); raw != "" {
		if depth, err = strconv.Atoi(raw); err != nil {
			return badRequest("invalid profondita")
		}
	}
	nodes, err := services.GetPartitaGenealogy(db.DB, id, depth)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, nodes)
}
