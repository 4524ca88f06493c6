package handlers

import (
	"net/http"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

type comuneRequest struct {
	Nome             string  `json:"nome"`
	Provincia        string  `json:"provincia"`
	Regione          string  `json:"regione"`
	CodiceCatastale  *string `json:"codice_catastale"`
	PeriodoID        *uint   `json:"periodo_id"`
	DataIstituzione  string  `json:"data_istituzione"`
	DataSoppressione string  `json:"data_soppressione"`
	Note             *string `json:"note"`
}

func (r comuneRequest) toInput() (services.ComuneInput, error) {
	istituzione, err := parseOptionalDateField("data_istituzione", r.DataIstituzione)
	if err != nil {
		return services.ComuneInput{}, err
	}
	soppressione, err := parseOptionalDateField("data_soppressione", r.DataSoppressione)
	if err != nil {
		return services.ComuneInput{}, err
	}
	return services.ComuneInput{
		Nome:             cleanText(r.Nome),
		Provincia:        cleanText(r.Provincia),
		Regione:          cleanText(r.Regione),
		CodiceCatastale:  cleanOptional(r.CodiceCatastale),
		PeriodoID:        r.PeriodoID,
		DataIstituzione:  istituzione,
		DataSoppressione: soppressione,
		Note:             cleanOptional(r.Note),
	}, nil
}

// ListComuniHandler lists comuni, optionally filtered by name
// GET /api/comuni?nome=xxx
func ListComuniHandler(c echo.Context) error {
	comuni, err := services.ListComuni(db.DB, c.QueryParam("nome"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, comuni)
}

// GetComuneHandler returns one comune
// GET /api/comuni/:id
func GetComuneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	comune, err := services.GetComune(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, comune)
}

// CreateComuneHandler creates a comune
// POST /api/comuni
func CreateComuneHandler(c echo.Context) error {
	var req comuneRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}
	comune, err := services.CreateComune(c.Request().Context(), db.DB, middleware.GetActorContext(c), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, comune)
}

// UpdateComuneHandler edits a comune
// PUT /api/comuni/:id
func UpdateComuneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req comuneRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}
	comune, err := services.UpdateComune(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, comune)
}

// DeleteComuneHandler removes an unreferenced comune
// DELETE /api/comuni/:id
func DeleteComuneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteComune(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type sezioneRequest struct {
	NomeSezione   string  `json:"nome_sezione"`
	CodiceSezione *string `json:"codice_sezione"`
	Note          *string `json:"note"`
}

// ListSezioniHandler lists the sections of a comune
// GET /api/comuni/:id/sezioni
func ListSezioniHandler(c echo.Context) error {
	comuneID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := services.GetComune(db.DB, comuneID); err != nil {
		return serviceError(c, err)
	}
	sezioni, err := services.ListSezioniByComune(db.DB, comuneID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, sezioni)
}

// CreateSezioneHandler adds a section to a comune
// POST /api/comuni/:id/sezioni
func CreateSezioneHandler(c echo.Context) error {
	comuneID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req sezioneRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sezione, err := services.CreateSezione(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.SezioneInput{
		ComuneID:      comuneID,
		NomeSezione:   cleanText(req.NomeSezione),
		CodiceSezione: cleanOptional(req.CodiceSezione),
		Note:          cleanOptional(req.Note),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, sezione)
}

// UpdateSezioneHandler edits a section
// PUT /api/sezioni/:id
func UpdateSezioneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req sezioneRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sezione, err := services.UpdateSezione(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, services.SezioneInput{
		NomeSezione:   cleanText(req.NomeSezione),
		CodiceSezione: cleanOptional(req.CodiceSezione),
		Note:          cleanOptional(req.Note),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, sezione)
}

// DeleteSezioneHandler removes a section
// DELETE /api/sezioni/:id
func DeleteSezioneHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteSezione(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type localitaRequest struct {
	Nome   string `json:"nome"`
	Tipo   string `json:"tipo"`
	Civico *int   `json:"civico"`
}

// ListLocalitaHandler lists the places of a comune
// GET /api/comuni/:id/localita
func ListLocalitaHandler(c echo.Context) error {
	comuneID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := services.GetComune(db.DB, comuneID); err != nil {
		return serviceError(c, err)
	}
	localita, err := services.ListLocalitaByComune(db.DB, comuneID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, localita)
}

// GetOrCreateLocalitaHandler returns the matching place, creating it when absent.
// Responds 201 when a row was inserted and 200 when it already existed.
// POST /api/comuni/:id/localita
func GetOrCreateLocalitaHandler(c echo.Context) error {
	comuneID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req localitaRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	localita, created, err := services.GetOrCreateLocalita(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.LocalitaInput{
		ComuneID: comuneID,
		Nome:     cleanText(req.Nome),
		Tipo:     req.Tipo,
		Civico:   req.Civico,
	})
	if err != nil {
		return serviceError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, localita)
}

// UpdateLocalitaHandler edits a place
// PUT /api/localita/:id
func UpdateLocalitaHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req localitaRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	localita, err := services.UpdateLocalita(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, services.LocalitaInput{
		Nome:   cleanText(req.Nome),
		Tipo:   req.Tipo,
		Civico: req.Civico,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, localita)
}

// DeleteLocalitaHandler removes a place no immobile references
// DELETE /api/localita/:id
func DeleteLocalitaHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteLocalita(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
