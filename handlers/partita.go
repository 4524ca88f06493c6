package handlers

import (
	"net/http"
	"strconv"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

type linkRequest struct {
	PossessoreID uint    `json:"possessore_id"`
	TipoPartita  string  `json:"tipo_partita"`
	Titolo       string  `json:"titolo"`
	Quota        *string `json:"quota"`
}

func (r linkRequest) toInput() services.LinkInput {
	return services.LinkInput{
		PossessoreID: r.PossessoreID,
		TipoPartita:  r.TipoPartita,
		Titolo:       cleanText(r.Titolo),
		Quota:        cleanOptional(r.Quota),
	}
}

func linkInputs(reqs []linkRequest) []services.LinkInput {
	if reqs == nil {
		return nil
	}
	out := make([]services.LinkInput, len(reqs))
	for i, r := range reqs {
		out[i] = r.toInput()
	}
	return out
}

type immobileRequest struct {
	Natura          string  `json:"natura"`
	LocalitaID      *uint   `json:"localita_id"`
	Classificazione *string `json:"classificazione"`
	Consistenza     *string `json:"consistenza"`
	NumeroPiani     *int    `json:"numero_piani"`
	NumeroVani      *int    `json:"numero_vani"`
}

func (r immobileRequest) toInput() services.ImmobileInput {
	return services.ImmobileInput{
		Natura:          cleanText(r.Natura),
		LocalitaID:      r.LocalitaID,
		Classificazione: cleanOptional(r.Classificazione),
		Consistenza:     cleanOptional(r.Consistenza),
		NumeroPiani:     r.NumeroPiani,
		NumeroVani:      r.NumeroVani,
	}
}

func immobileInputs(reqs []immobileRequest) []services.ImmobileInput {
	out := make([]services.ImmobileInput, len(reqs))
	for i, r := range reqs {
		out[i] = r.toInput()
	}
	return out
}

type createPartitaRequest struct {
	ComuneID          uint    `json:"comune_id"`
	NumeroPartita     int     `json:"numero_partita"`
	SuffissoPartita   string  `json:"suffisso_partita"`
	Tipo              string  `json:"tipo"`
	DataImpianto      string  `json:"data_impianto"`
	NumeroProvenienza *string `json:"numero_provenienza"`
}

// SearchPartiteHandler searches partite with their association counts
// GET /api/partite?comune_id=1&numero=10&suffisso=bis&stato=attiva&possessore_id=5&nome_possessore=rossi
func SearchPartiteHandler(c echo.Context) error {
	comuneID, err := queryUint(c, "comune_id")
	if err != nil {
		return err
	}
	possessoreID, err := queryUint(c, "possessore_id")
	if err != nil {
		return err
	}

	filters := services.PartitaFilters{
		ComuneID:       comuneID,
		Stato:          c.QueryParam("stato"),
		PossessoreID:   possessoreID,
		NomePossessore: c.QueryParam("nome_possessore"),
	}
	if raw := c.QueryParam("numero"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("invalid numero")
		}
		filters.Numero = &n
	}
	if c.QueryParams().Has("suffisso") {
		s := c.QueryParam("suffisso")
		filters.Suffisso = &s
	}

	page, pageSize := pagination(c)
	partite, total, err := services.SearchPartite(db.DB, filters, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(partite, total, page, pageSize))
}

// GetPartitaHandler returns a partita with its comune, owners and assets
// GET /api/partite/:id
func GetPartitaHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	partita, err := services.GetPartitaAggregate(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, partita)
}

// CreatePartitaHandler opens an empty partita
// POST /api/partite
func CreatePartitaHandler(c echo.Context) error {
	var req createPartitaRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataImpianto, err := parseDateField("data_impianto", req.DataImpianto)
	if err != nil {
		return err
	}
	partita, err := services.CreatePartita(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.CreatePartitaInput{
		ComuneID:          req.ComuneID,
		Numero:            req.NumeroPartita,
		Suffisso:          cleanText(req.SuffissoPartita),
		Tipo:              req.Tipo,
		DataImpianto:      dataImpianto,
		NumeroProvenienza: cleanOptional(req.NumeroProvenienza),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, partita)
}

// UpdatePartitaHandler edits tipo, data_impianto and provenienza
// PUT /api/partite/:id
func UpdatePartitaHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Tipo              string  `json:"tipo"`
		DataImpianto      string  `json:"data_impianto"`
		NumeroProvenienza *string `json:"numero_provenienza"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataImpianto, err := parseDateField("data_impianto", req.DataImpianto)
	if err != nil {
		return err
	}
	partita, err := services.UpdatePartita(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, services.UpdatePartitaInput{
		Tipo:              req.Tipo,
		DataImpianto:      dataImpianto,
		NumeroProvenienza: cleanOptional(req.NumeroProvenienza),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, partita)
}

// ClosePartitaHandler marks an emptied partita inattiva
// POST /api/partite/:id/chiusura
func ClosePartitaHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		DataChiusura string `json:"data_chiusura"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataChiusura, err := parseDateField("data_chiusura", req.DataChiusura)
	if err != nil {
		return err
	}
	partita, err := services.ClosePartita(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, dataChiusura)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, partita)
}

// AddPossessoreLinkHandler links an owner to a partita
// POST /api/partite/:id/possessori
func AddPossessoreLinkHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req linkRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	link, err := services.AddPossessoreLink(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, req.toInput())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, link)
}

// UpdateLinkHandler edits title, share and relation type of a link
// PUT /api/links/:id
func UpdateLinkHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req linkRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	link, err := services.UpdateLink(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, services.LinkUpdate{
		TipoPartita: req.TipoPartita,
		Titolo:      cleanText(req.Titolo),
		Quota:       cleanOptional(req.Quota),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, link)
}

// RemoveLinkHandler detaches an owner from a partita
// DELETE /api/links/:id
func RemoveLinkHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.RemoveLink(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddImmobileHandler records an asset on a partita
// POST /api/partite/:id/immobili
func AddImmobileHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req immobileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	immobile, err := services.AddImmobile(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, req.toInput())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, immobile)
}

// GetImmobileHandler returns one asset
// GET /api/immobili/:id
func GetImmobileHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	immobile, err := services.GetImmobile(db.DB, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, immobile)
}

// UpdateImmobileHandler edits an asset in place
// PUT /api/immobili/:id
func UpdateImmobileHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req immobileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	immobile, err := services.UpdateImmobile(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, req.toInput())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, immobile)
}

// MoveImmobileHandler reassigns an asset to another partita without a variazione
// POST /api/immobili/:id/sposta
func MoveImmobileHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		PartitaID uint `json:"partita_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	immobile, err := services.MoveImmobile(c.Request().Context(), db.DB, middleware.GetActorContext(c), id, req.PartitaID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, immobile)
}

// DeleteImmobileHandler removes an asset
// DELETE /api/immobili/:id
func DeleteImmobileHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteImmobile(c.Request().Context(), db.DB, middleware.GetActorContext(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
