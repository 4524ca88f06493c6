package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"catasto_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentoRoutes(t *testing.T) {
	database := setupTestDB(t)
	seedAlbenga(t, database)
	e := newTestServer(t, testConfig())
	p := registerViaAPI(t, e, 70, "Casa")

	rec := doJSON(t, e, http.MethodPost, "/api/documenti", map[string]interface{}{
		"titolo":         "Atto di vendita Rossi",
		"tipo_documento": "Atto notarile",
		"anno":           1950,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var documento models.Documento
	decodeBody(t, rec, &documento)

	rec = doJSON(t, e, http.MethodPost, "/api/documenti", map[string]interface{}{
		"titolo":         "Fotografia",
		"tipo_documento": "Fotografia",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	linkPath := fmt.Sprintf("/api/partite/%d/documenti", p.ID)
	rec = doJSON(t, e, http.MethodPost, linkPath, map[string]interface{}{
		"documento_id": documento.ID,
		"rilevanza":    models.RilevanzaPrimaria,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, linkPath, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var links []models.DocumentoPartita
	decodeBody(t, rec, &links)
	require.Len(t, links, 1)
	require.NotNil(t, links[0].Documento)
	assert.Equal(t, "Atto di vendita Rossi", links[0].Documento.Titolo)

	// Linked documents cannot be deleted
	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/documenti/%d", documento.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("%s/%d", linkPath, documento.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/documenti/%d", documento.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/documenti/%d", documento.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConsultazioneRoutes(t *testing.T) {
	setupTestDB(t)
	e := newTestServer(t, testConfig())

	for _, data := range []string{"1990-01-10", "1990-06-10", "1991-02-01"} {
		rec := doJSON(t, e, http.MethodPost, "/api/consultazioni", map[string]interface{}{
			"data_consultazione":   data,
			"richiedente":          "Dott. Verdi",
			"materiale_consultato": "Registro partite 1932",
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, e, http.MethodGet, "/api/consultazioni?date_from=1990-01-01&date_to=1990-12-31", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []models.Consultazione `json:"items"`
		Total int64                  `json:"total"`
	}
	decodeBody(t, rec, &page)
	assert.Equal(t, int64(2), page.Total)

	rec = doJSON(t, e, http.MethodPost, "/api/consultazioni", map[string]interface{}{
		"data_consultazione": "1990-01-10",
		"richiedente":        "Dott. Verdi",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/consultazioni?date_from=ieri", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRoute(t *testing.T) {
	setupTestDB(t)
	e := newTestServer(t, testConfig())

	rec := doJSON(t, e, http.MethodGet, "/api/cataloghi/"+models.CatalogKeyTipoVariazione, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var options []models.CatalogOption
	decodeBody(t, rec, &options)

	codes := make([]string, len(options))
	for i, o := range options {
		codes[i] = o.Code
	}
	assert.Contains(t, codes, models.VariazioneTrasferimento)
	assert.Contains(t, codes, models.VariazioneFrazionamento)
}
