package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"catasto_app_go/models"
	"catasto_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePartitaHandler(t *testing.T) {
	database := setupTestDB(t)
	seedAlbenga(t, database)

	t.Run("Success", func(t *testing.T) {
		body := `{"comune_id":1,"numero_partita":101,"suffisso_partita":" bis ","data_impianto":"1932-03-15"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/partite", strings.NewReader(body))

		require.NoError(t, CreatePartitaHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var p models.Partita
		decodeBody(t, rec, &p)
		assert.Equal(t, "bis", p.SuffissoPartita)
		assert.Equal(t, models.PartitaTipoPrincipale, p.Tipo)
		assert.Equal(t, models.PartitaStatoAttiva, p.Stato)
		assert.Nil(t, p.NumeroProvenienza)
	})

	t.Run("SameNumeroDifferentSuffisso", func(t *testing.T) {
		body := `{"comune_id":1,"numero_partita":101,"data_impianto":"1932-03-15"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/partite", strings.NewReader(body))
		require.NoError(t, CreatePartitaHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Duplicate", func(t *testing.T) {
		body := `{"comune_id":1,"numero_partita":101,"suffisso_partita":"bis","data_impianto":"1932-03-15"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/partite", strings.NewReader(body))
		status, resp := httpErrorOf(t, CreatePartitaHandler(c))
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "unique_constraint", resp["error"])
	})

	t.Run("UnknownComune", func(t *testing.T) {
		body := `{"comune_id":99,"numero_partita":1,"data_impianto":"1932-03-15"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/partite", strings.NewReader(body))
		status, _ := httpErrorOf(t, CreatePartitaHandler(c))
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("InvalidTipo", func(t *testing.T) {
		body := `{"comune_id":1,"numero_partita":102,"tipo":"terziaria","data_impianto":"1932-03-15"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/partite", strings.NewReader(body))
		status, _ := httpErrorOf(t, CreatePartitaHandler(c))
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestPartitaRoutes(t *testing.T) {
	database := setupTestDB(t)
	seedAlbenga(t, database)
	e := newTestServer(t, testConfig())

	p := registerViaAPI(t, e, 60, "Casa")
	partitaPath := fmt.Sprintf("/api/partite/%d", p.ID)

	t.Run("CloseNonEmpty", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, partitaPath+"/chiusura", map[string]string{"data_chiusura": "1980-01-01"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	var immobileID uint
	t.Run("Immobili", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, partitaPath+"/immobili", map[string]interface{}{
			"natura":       "Stalla",
			"numero_piani": 1,
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var immobile models.Immobile
		decodeBody(t, rec, &immobile)
		immobileID = immobile.ID

		rec = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/immobili/%d", immobileID), map[string]interface{}{
			"natura":          "Stalla con fienile",
			"classificazione": "C/6",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/immobili/%d", immobileID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &immobile)
		assert.Equal(t, "Stalla con fienile", immobile.Natura)

		rec = doJSON(t, e, http.MethodPost, partitaPath+"/immobili", map[string]interface{}{"natura": " "}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("MoveImmobile", func(t *testing.T) {
		other := registerViaAPI(t, e, 61, "Prato")
		rec := doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/immobili/%d/sposta", immobileID), map[string]uint{"partita_id": other.ID}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var immobile models.Immobile
		decodeBody(t, rec, &immobile)
		assert.Equal(t, other.ID, immobile.PartitaID)

		rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/immobili/%d", immobileID), nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Links", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, partitaPath+"/possessori", map[string]interface{}{
			"possessore_id": 7,
			"titolo":        "usufrutto",
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var link models.PartitaPossessore
		decodeBody(t, rec, &link)

		rec = doJSON(t, e, http.MethodPost, partitaPath+"/possessori", map[string]interface{}{
			"possessore_id": 7,
			"titolo":        "usufrutto",
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/links/%d", link.ID), map[string]interface{}{
			"titolo": "nuda proprietà",
			"quota":  "1/2",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, e, http.MethodGet, "/api/possessori/7/partite", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var owned []services.PossessorePartita
		decodeBody(t, rec, &owned)
		require.Len(t, owned, 1)
		assert.Equal(t, "nuda proprietà", owned[0].Titolo)

		rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/links/%d", link.ID), nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Search", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodGet, "/api/partite?comune_id=1&numero=60", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var page struct {
			Items []services.PartitaSummary `json:"items"`
			Total int64                     `json:"total"`
		}
		decodeBody(t, rec, &page)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, int64(1), page.Items[0].NumImmobili)
		assert.Equal(t, "Albenga", page.Items[0].ComuneNome)

		rec = doJSON(t, e, http.MethodGet, "/api/partite?numero=sessanta", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UpdateKeepsStato", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPut, partitaPath, map[string]interface{}{
			"tipo":               models.PartitaTipoSecondaria,
			"data_impianto":      "1933-01-01",
			"numero_provenienza": "59",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated models.Partita
		decodeBody(t, rec, &updated)
		assert.Equal(t, models.PartitaTipoSecondaria, updated.Tipo)
		assert.Equal(t, models.PartitaStatoAttiva, updated.Stato)
		require.NotNil(t, updated.NumeroProvenienza)
		assert.Equal(t, "59", *updated.NumeroProvenienza)
	})

	t.Run("GetMissing", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodGet, "/api/partite/9999", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = doJSON(t, e, http.MethodGet, "/api/partite/abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
