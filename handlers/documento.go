package handlers

import (
	"net/http"
	"time"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

// CreateDocumentoHandler registers an archival document
// POST /api/documenti
func CreateDocumentoHandler(c echo.Context) error {
	var req struct {
		Titolo        string  `json:"titolo"`
		TipoDocumento string  `json:"tipo_documento"`
		PercorsoFile  *string `json:"percorso_file"`
		Descrizione   *string `json:"descrizione"`
		Anno          *int    `json:"anno"`
		PeriodoID     *uint   `json:"periodo_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	documento, err := services.CreateDocumento(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.DocumentoInput{
		Titolo:        cleanText(req.Titolo),
		TipoDocumento: req.TipoDocumento,
		PercorsoFile:  cleanOptional(req.PercorsoFile),
		Descrizione:   cleanOptional(req.Descrizione),
		Anno:          req.Anno,
		PeriodoID:     req.PeriodoID,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, documento)
}

// GetDocumentoHandler returns one document
// GET /api/documenti/:id
func GetDocumentoHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	documento, err := services.GetDocumento(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, documento)
}

// DeleteDocumentoHandler removes a document linked to no partita
// DELETE /api/documenti/:id
func DeleteDocumentoHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteDocumento(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LinkDocumentoHandler associates a document with a partita
// POST /api/partite/:id/documenti
func LinkDocumentoHandler(c echo.Context) error {
	partitaID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		DocumentoID uint    `json:"documento_id"`
		Rilevanza   string  `json:"rilevanza"`
		Note        *string `json:"note"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	link, err := services.LinkDocumentoToPartita(c.Request().Context(), db.DB, middleware.GetActorContext(c),
		req.DocumentoID, partitaID, req.Rilevanza, cleanOptional(req.Note))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, link)
}

// UnlinkDocumentoHandler removes the association, keeping the document
// DELETE /api/partite/:id/documenti/:documento_id
func UnlinkDocumentoHandler(c echo.Context) error {
	partitaID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	documentoID, err := paramID(c, "documento_id")
	if err != nil {
		return err
	}
	if err := services.UnlinkDocumento(c.Request().Context(), db.DB, middleware.GetActorContext(c), documentoID, partitaID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPartitaDocumentiHandler lists the documents of a partita
// GET /api/partite/:id/documenti
func ListPartitaDocumentiHandler(c echo.Context) error {
	partitaID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	links, err := services.ListDocumentiByPartita(db.DB, partitaID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, links)
}

// CreateConsultazioneHandler records a reading-room consultation
// POST /api/consultazioni
func CreateConsultazioneHandler(c echo.Context) error {
	var req struct {
		DataConsultazione       string  `json:"data_consultazione"`
		Richiedente             string  `json:"richiedente"`
		DocumentoIdentita       *string `json:"documento_identita"`
		Motivazione             *string `json:"motivazione"`
		MaterialeConsultato     string  `json:"materiale_consultato"`
		FunzionarioAutorizzante *string `json:"funzionario_autorizzante"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	data, err := parseDateField("data_consultazione", req.DataConsultazione)
	if err != nil {
		return err
	}
	consultazione, err := services.RegistraConsultazione(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.ConsultazioneInput{
		DataConsultazione:       data,
		Richiedente:             cleanText(req.Richiedente),
		DocumentoIdentita:       cleanOptional(req.DocumentoIdentita),
		Motivazione:             cleanOptional(req.Motivazione),
		MaterialeConsultato:     cleanText(req.MaterialeConsultato),
		FunzionarioAutorizzante: cleanOptional(req.FunzionarioAutorizzante),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, consultazione)
}

// ListConsultazioniHandler lists consultations, newest first
// GET /api/consultazioni?richiedente=xxx&date_from=1990-01-01&date_to=1990-12-31
func ListConsultazioniHandler(c echo.Context) error {
	filters := services.ConsultazioneFilters{Richiedente: c.QueryParam("richiedente")}
	from, err := parseOptionalDateField("date_from", c.QueryParam("date_from"))
	if err != nil {
		return err
	}
	if from != nil {
		filters.DateFrom = *from
	}
	to, err := parseOptionalDateField("date_to", c.QueryParam("date_to"))
	if err != nil {
		return err
	}
	if to != nil {
		filters.DateTo = to.Add(24*time.Hour - time.Second)
	}

	page, pageSize := pagination(c)
	rows, total, err := services.ListConsultazioni(db.DB, filters, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(rows, total, page, pageSize))
}
