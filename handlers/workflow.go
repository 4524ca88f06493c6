package handlers

import (
	"net/http"
	"time"

	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

type contrattoRequest struct {
	TipoContratto *string `json:"tipo_contratto"`
	DataContratto string  `json:"data_contratto"`
	Notaio        *string `json:"notaio"`
	Repertorio    *string `json:"repertorio"`
}

func (r contrattoRequest) toInput() (services.ContrattoInput, error) {
	data, err := parseOptionalDateField("data_contratto", r.DataContratto)
	if err != nil {
		return services.ContrattoInput{}, err
	}
	return services.ContrattoInput{
		TipoContratto: cleanOptional(r.TipoContratto),
		DataContratto: data,
		Notaio:        cleanOptional(r.Notaio),
		Repertorio:    cleanOptional(r.Repertorio),
	}, nil
}

// RegisterPropertyHandler creates a partita with its owners and assets in one step
// POST /api/workflows/register
func RegisterPropertyHandler(c echo.Context) error {
	var req struct {
		createPartitaRequest
		Possessori []linkRequest     `json:"possessori"`
		Immobili   []immobileRequest `json:"immobili"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataImpianto, err := parseDateField("data_impianto", req.DataImpianto)
	if err != nil {
		return err
	}

	partita, err := services.RegisterNewProperty(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.RegisterPropertyInput{
		ComuneID:          req.ComuneID,
		Numero:            req.NumeroPartita,
		Suffisso:          cleanText(req.SuffissoPartita),
		Tipo:              req.Tipo,
		DataImpianto:      dataImpianto,
		NumeroProvenienza: cleanOptional(req.NumeroProvenienza),
		Possessori:        linkInputs(req.Possessori),
		Immobili:          immobileInputs(req.Immobili),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, partita)
}

// TransferOwnershipHandler records a voltura from an origin to a new partita
// POST /api/workflows/transfer
func TransferOwnershipHandler(c echo.Context) error {
	var req struct {
		OrigineID            uint             `json:"origine_id"`
		ComuneID             uint             `json:"comune_id"`
		NumeroPartita        int              `json:"numero_partita"`
		SuffissoPartita      string           `json:"suffisso_partita"`
		Tipo                 string           `json:"tipo"`
		TipoVariazione       string           `json:"tipo_variazione"`
		DataVariazione       string           `json:"data_variazione"`
		Contratto            contrattoRequest `json:"contratto"`
		NuoviPossessori      []linkRequest    `json:"nuovi_possessori"`
		ImmobiliDaTrasferire []uint           `json:"immobili_da_trasferire"`
		NumeroProvenienza    *string          `json:"numero_provenienza"`
		Note                 *string          `json:"note"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataVariazione, err := parseDateField("data_variazione", req.DataVariazione)
	if err != nil {
		return err
	}
	contratto, err := req.Contratto.toInput()
	if err != nil {
		return err
	}

	result, err := services.TransferOwnership(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.TransferInput{
		OrigineID:            req.OrigineID,
		ComuneID:             req.ComuneID,
		Numero:               req.NumeroPartita,
		Suffisso:             cleanText(req.SuffissoPartita),
		Tipo:                 req.Tipo,
		TipoVariazione:       req.TipoVariazione,
		DataVariazione:       dataVariazione,
		Contratto:            contratto,
		NuoviPossessori:      linkInputs(req.NuoviPossessori),
		NumeroProvenienza:    cleanOptional(req.NumeroProvenienza),
		Note:                 cleanOptional(req.Note),
		ImmobiliDaTrasferire: req.ImmobiliDaTrasferire,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// SplitHandler records a frazionamento of an origin into several partite
// POST /api/workflows/split
func SplitHandler(c echo.Context) error {
	var req struct {
		OrigineID      uint             `json:"origine_id"`
		DataVariazione string           `json:"data_variazione"`
		Contratto      contrattoRequest `json:"contratto"`
		Note           *string          `json:"note"`
		NuovePartite   []struct {
			NumeroPartita     int           `json:"numero_partita"`
			SuffissoPartita   string        `json:"suffisso_partita"`
			Tipo              string        `json:"tipo"`
			Possessori        []linkRequest `json:"possessori"`
			ImmobileIDs       []uint        `json:"immobile_ids"`
			NumeroProvenienza *string       `json:"numero_provenienza"`
		} `json:"nuove_partite"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataVariazione, err := parseDateField("data_variazione", req.DataVariazione)
	if err != nil {
		return err
	}
	contratto, err := req.Contratto.toInput()
	if err != nil {
		return err
	}

	targets := make([]services.SplitTarget, len(req.NuovePartite))
	for i, t := range req.NuovePartite {
		targets[i] = services.SplitTarget{
			Numero:            t.NumeroPartita,
			Suffisso:          cleanText(t.SuffissoPartita),
			Tipo:              t.Tipo,
			Possessori:        linkInputs(t.Possessori),
			ImmobileIDs:       t.ImmobileIDs,
			NumeroProvenienza: cleanOptional(t.NumeroProvenienza),
		}
	}

	result, err := services.Split(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.SplitInput{
		OrigineID:      req.OrigineID,
		DataVariazione: dataVariazione,
		Contratto:      contratto,
		NuovePartite:   targets,
		Note:           cleanOptional(req.Note),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// DuplicatePartitaHandler copies a partita under a new numero
// POST /api/workflows/duplicate
func DuplicatePartitaHandler(c echo.Context) error {
	var req struct {
		OrigineID           uint    `json:"origine_id"`
		NumeroPartita       int     `json:"numero_partita"`
		SuffissoPartita     string  `json:"suffisso_partita"`
		Tipo                string  `json:"tipo"`
		DataImpianto        string  `json:"data_impianto"`
		MantenerePossessori bool    `json:"mantenere_possessori"`
		MantenereImmobili   bool    `json:"mantenere_immobili"`
		NumeroProvenienza   *string `json:"numero_provenienza"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	dataImpianto, err := parseOptionalDateField("data_impianto", req.DataImpianto)
	if err != nil {
		return err
	}

	in := services.DuplicateInput{
		OrigineID:           req.OrigineID,
		Numero:              req.NumeroPartita,
		Suffisso:            cleanText(req.SuffissoPartita),
		Tipo:                req.Tipo,
		MantenerePossessori: req.MantenerePossessori,
		MantenereImmobili:   req.MantenereImmobili,
		NumeroProvenienza:   cleanOptional(req.NumeroProvenienza),
	}
	if dataImpianto != nil {
		in.DataImpianto = *dataImpianto
	}

	partita, err := services.DuplicatePartita(c.Request().Context(), db.DB, middleware.GetActorContext(c), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, partita)
}

// TransferImmobileHandler moves one asset, optionally recording a variazione
// POST /api/workflows/transfer-immobile
func TransferImmobileHandler(c echo.Context) error {
	var req struct {
		ImmobileID         uint             `json:"immobile_id"`
		DestinazioneID     uint             `json:"destinazione_id"`
		RegistraVariazione bool             `json:"registra_variazione"`
		TipoVariazione     string           `json:"tipo_variazione"`
		DataVariazione     string           `json:"data_variazione"`
		Contratto          contrattoRequest `json:"contratto"`
		Note               *string          `json:"note"`
	}
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var dataVariazione time.Time
	if req.RegistraVariazione {
		d, err := parseDateField("data_variazione", req.DataVariazione)
		if err != nil {
			return err
		}
		dataVariazione = d
	}
	contratto, err := req.Contratto.toInput()
	if err != nil {
		return err
	}

	result, err := services.TransferImmobile(c.Request().Context(), db.DB, middleware.GetActorContext(c), services.TransferImmobileInput{
		ImmobileID:         req.ImmobileID,
		DestinazioneID:     req.DestinazioneID,
		RegistraVariazione: req.RegistraVariazione,
		TipoVariazione:     req.TipoVariazione,
		DataVariazione:     dataVariazione,
		Contratto:          contratto,
		Note:               cleanOptional(req.Note),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
