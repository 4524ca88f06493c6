package handlers

import (
	"net/http"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

type possessoreRequest struct {
	ComuneRiferimentoID uint    `json:"comune_riferimento_id"`
	NomeCompleto        string  `json:"nome_completo"`
	CognomeNome         *string `json:"cognome_nome"`
	Paternita           *string `json:"paternita"`
	Attivo              *bool   `json:"attivo"`
}

func (r possessoreRequest) toInput() services.PossessoreInput {
	return services.PossessoreInput{
		ComuneRiferimentoID: r.ComuneRiferimentoID,
		NomeCompleto:        cleanText(r.NomeCompleto),
		CognomeNome:         cleanOptional(r.CognomeNome),
		Paternita:           cleanOptional(r.Paternita),
		Attivo:              r.Attivo,
	}
}

// SearchPossessoriHandler searches owners by name, comune and active flag
// GET /api/possessori?nome=xxx&comune_id=1&attivo=true
func SearchPossessoriHandler(c echo.Context) error {
	comuneID, err := queryUint(c, "comune_id")
	if err != nil {
		return err
	}
	attivo, err := queryBool(c, "attivo")
	if err != nil {
		return err
	}
	page, pageSize := pagination(c)

	possessori, total, err := services.SearchPossessori(db.DB, services.PossessoreFilters{
		Nome:     c.QueryParam("nome"),
		ComuneID: comuneID,
		Attivo:   attivo,
	}, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(possessori, total, page, pageSize))
}

// GetPossessoreHandler returns one owner
// GET /api/possessori/:id
func GetPossessoreHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	possessore, err := services.GetPossessore(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, possessore)
}

// GetPossessorePartiteHandler lists the partite an owner is linked to
// GET /api/possessori/:id/partite
func GetPossessorePartiteHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	partite, err := services.GetPossessorePartite(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, partite)
}

// CreatePossessoreHandler registers an owner
// POST /api/possessori
func CreatePossessoreHandler(c echo.Context) error {
	var req possessoreRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	possessore, err := services.CreatePossessore(c.Request().Context(), db.DB, middleware.GetActorContext(c), req.toInput())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, possessore)
}

// UpdatePossessoreHandler edits an owner
// PUT /api/possessori/:id
func UpdatePossessoreHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req possessoreRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	possessore, err := services.UpdatePossessore(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, req.toInput())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, possessore)
}

// DeletePossessoreHandler removes an owner no partita links to
// DELETE /api/possessori/:id
func DeletePossessoreHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeletePossessore(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
