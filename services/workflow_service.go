package services

import (
	"context"
	"strings"
	"time"

	"catasto_app_go/logger"
	"catasto_app_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PropagateNumeroProvenienza makes derived partite record the origin's
// numero when the caller supplies no explicit provenienza.
var PropagateNumeroProvenienza = false

// OriginOutcome tells what a transfer or split left of its origin
type OriginOutcome string

const (
	// OriginClosed: the origin was emptied of immobili and is now inattiva
	OriginClosed OriginOutcome = "origin_closed"
	// OriginStillActive: immobili remain on the origin, which stays attiva
	OriginStillActive OriginOutcome = "origin_still_active"
)

// ContrattoInput is the contract metadata recorded on a variazione
type ContrattoInput struct {
	TipoContratto *string
	DataContratto *time.Time
	Notaio        *string
	Repertorio    *string
}

func (c ContrattoInput) applyTo(v *models.Variazione) {
	v.TipoContratto = trimOptional(c.TipoContratto)
	v.DataContratto = c.DataContratto
	v.Notaio = trimOptional(c.Notaio)
	v.Repertorio = trimOptional(c.Repertorio)
}

// RegisterPropertyInput describes a brand new partita with its owners and assets
type RegisterPropertyInput struct {
	ComuneID          uint
	Numero            int
	Suffisso          string
	Tipo              string
	DataImpianto      time.Time
	NumeroProvenienza *string
	Possessori        []LinkInput
	Immobili          []ImmobileInput
}

// TransferInput describes a voltura from an origin to a new destination partita
type TransferInput struct {
	OrigineID         uint
	ComuneID          uint // zero keeps the origin's comune
	Numero            int
	Suffisso          string
	Tipo              string
	TipoVariazione    string
	DataVariazione    time.Time
	Contratto         ContrattoInput
	NuoviPossessori   []LinkInput
	NumeroProvenienza *string
	Note              *string

	// nil moves every immobile the origin owns when the operation starts
	ImmobiliDaTrasferire []uint
}

// TransferResult is the post-operation state of a voltura
type TransferResult struct {
	Origine       *models.Partita   `json:"origine"`
	Destinazione  *models.Partita   `json:"destinazione"`
	Variazione    models.Variazione `json:"variazione"`
	OriginOutcome OriginOutcome     `json:"origin_outcome"`
}

// SplitTarget is one new partita produced by a frazionamento
type SplitTarget struct {
	Numero            int
	Suffisso          string
	Tipo              string
	Possessori        []LinkInput
	ImmobileIDs       []uint
	NumeroProvenienza *string
}

// SplitInput describes a frazionamento of an origin into several partite
type SplitInput struct {
	OrigineID      uint
	DataVariazione time.Time
	Contratto      ContrattoInput
	NuovePartite   []SplitTarget
	Note           *string
}

// SplitResult is the post-operation state of a frazionamento
type SplitResult struct {
	Origine       *models.Partita     `json:"origine"`
	Destinazioni  []*models.Partita   `json:"destinazioni"`
	Variazioni    []models.Variazione `json:"variazioni"`
	OriginOutcome OriginOutcome       `json:"origin_outcome"`
}

// DuplicateInput describes a copy of a partita under a new numero in the same comune
type DuplicateInput struct {
	OrigineID           uint
	Numero              int
	Suffisso            string
	Tipo                string    // empty keeps the origin's tipo
	DataImpianto        time.Time // zero keeps the origin's data_impianto
	MantenerePossessori bool
	MantenereImmobili   bool
	NumeroProvenienza   *string
}

// TransferImmobileInput moves one immobile, optionally as a registered event
type TransferImmobileInput struct {
	ImmobileID         uint
	DestinazioneID     uint
	RegistraVariazione bool
	TipoVariazione     string
	DataVariazione     time.Time
	Contratto          ContrattoInput
	Note               *string
}

// TransferImmobileResult is the post-operation state of a single-asset move
type TransferImmobileResult struct {
	Immobile      models.Immobile    `json:"immobile"`
	Origine       *models.Partita    `json:"origine"`
	Destinazione  *models.Partita    `json:"destinazione"`
	Variazione    *models.Variazione `json:"variazione,omitempty"`
	OriginOutcome OriginOutcome      `json:"origin_outcome"`
}

// RegisterNewProperty creates a partita, links its possessori and records its
// immobili as one unit.
func RegisterNewProperty(ctx context.Context, db *gorm.DB, actor ActorContext, in RegisterPropertyInput) (*models.Partita, error) {
	if len(in.Possessori) == 0 {
		return nil, validationError("at least one possessore is required")
	}
	if len(in.Immobili) == 0 {
		return nil, validationError("at least one immobile is required")
	}

	var aggregate *models.Partita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		partita, err := createPartitaTx(tx, actor, CreatePartitaInput{
			ComuneID:          in.ComuneID,
			Numero:            in.Numero,
			Suffisso:          in.Suffisso,
			Tipo:              in.Tipo,
			DataImpianto:      in.DataImpianto,
			NumeroProvenienza: in.NumeroProvenienza,
		})
		if err != nil {
			return err
		}
		for _, link := range in.Possessori {
			if _, err := addPossessoreLinkTx(tx, actor, partita, link); err != nil {
				return err
			}
		}
		for _, immobile := range in.Immobili {
			if _, err := addImmobileTx(tx, actor, partita, immobile); err != nil {
				return err
			}
		}
		aggregate, err = loadAggregate(tx, partita.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("property registered",
		zap.Uint("partita_id", aggregate.ID),
		zap.Uint("comune_id", aggregate.ComuneID),
		zap.String("numero", aggregate.Riferimento()),
		zap.Int("possessori", len(aggregate.Possessori)),
		zap.Int("immobili", len(aggregate.Immobili)),
		zap.String("user_id", actor.UserID),
	)
	return aggregate, nil
}

// TransferOwnership registers a voltura: it opens the destination partita,
// links the new owners, moves the selected immobili and records the
// variazione. The origin is closed only when no immobili remain on it.
func TransferOwnership(ctx context.Context, db *gorm.DB, actor ActorContext, in TransferInput) (*TransferResult, error) {
	if len(in.NuoviPossessori) == 0 {
		return nil, validationError("at least one new possessore is required")
	}
	if in.DataVariazione.IsZero() {
		return nil, validationError("data_variazione is required")
	}
	if in.TipoVariazione = strings.TrimSpace(in.TipoVariazione); in.TipoVariazione == "" {
		in.TipoVariazione = models.VariazioneTrasferimento
	}
	if err := rejectDuplicateIDs(in.ImmobiliDaTrasferire); err != nil {
		return nil, err
	}

	result := &TransferResult{}
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		origine, err := lockActiveOrigin(tx, in.OrigineID)
		if err != nil {
			return err
		}
		if err := requireCatalogOption(tx, models.CatalogKeyTipoVariazione, "tipo_variazione", in.TipoVariazione); err != nil {
			return err
		}

		// The move set is fixed here, before any write
		snapshot, err := lockImmobiliOf(tx, origine.ID)
		if err != nil {
			return err
		}
		toMove, err := selectOwnedImmobili(origine.ID, snapshot, in.ImmobiliDaTrasferire)
		if err != nil {
			return err
		}

		comuneID := in.ComuneID
		if comuneID == 0 {
			comuneID = origine.ComuneID
		}
		dest, err := createPartitaTx(tx, actor, CreatePartitaInput{
			ComuneID:          comuneID,
			Numero:            in.Numero,
			Suffisso:          in.Suffisso,
			Tipo:              in.Tipo,
			DataImpianto:      in.DataVariazione,
			NumeroProvenienza: provenienzaFor(origine, in.NumeroProvenienza),
		})
		if err != nil {
			return err
		}
		for _, link := range in.NuoviPossessori {
			if _, err := addPossessoreLinkTx(tx, actor, dest, link); err != nil {
				return err
			}
		}
		for i := range toMove {
			if err := moveImmobileTx(tx, actor, &toMove[i], dest); err != nil {
				return err
			}
		}

		remaining, err := countWhere(tx, &models.Immobile{}, "partita_id = ?", origine.ID)
		if err != nil {
			return err
		}
		v := models.Variazione{
			Tipo:                  in.TipoVariazione,
			DataVariazione:        in.DataVariazione,
			PartitaOrigineID:      origine.ID,
			PartitaDestinazioneID: &dest.ID,
			Note:                  trimOptional(in.Note),
			ChiusuraOrigine:       remaining == 0,
		}
		in.Contratto.applyTo(&v)
		if err := insertVariazione(tx, actor, &v); err != nil {
			return err
		}

		result.OriginOutcome = OriginStillActive
		if remaining == 0 {
			if err := closePartitaTx(tx, actor, origine, in.DataVariazione); err != nil {
				return err
			}
			result.OriginOutcome = OriginClosed
		}

		result.Variazione = v
		if result.Origine, err = loadAggregate(tx, origine.ID); err != nil {
			return err
		}
		result.Destinazione, err = loadAggregate(tx, dest.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("ownership transferred",
		zap.Uint("origin_id", result.Origine.ID),
		zap.Uint("destination_id", result.Destinazione.ID),
		zap.Uint("variazione_id", result.Variazione.ID),
		zap.Int("immobili_moved", len(result.Destinazione.Immobili)),
		zap.String("outcome", string(result.OriginOutcome)),
		zap.String("user_id", actor.UserID),
	)
	return result, nil
}

// Split registers a frazionamento of the origin into the target partite.
// Immobili not assigned to any target stay on the origin and keep it attiva.
func Split(ctx context.Context, db *gorm.DB, actor ActorContext, in SplitInput) (*SplitResult, error) {
	if len(in.NuovePartite) == 0 {
		return nil, validationError("at least one nuova partita is required")
	}
	if in.DataVariazione.IsZero() {
		return nil, validationError("data_variazione is required")
	}
	var assigned []uint
	for _, target := range in.NuovePartite {
		assigned = append(assigned, target.ImmobileIDs...)
	}
	if err := rejectDuplicateIDs(assigned); err != nil {
		return nil, err
	}

	result := &SplitResult{}
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		origine, err := lockActiveOrigin(tx, in.OrigineID)
		if err != nil {
			return err
		}
		snapshot, err := lockImmobiliOf(tx, origine.ID)
		if err != nil {
			return err
		}
		owned := make(map[uint]models.Immobile, len(snapshot))
		for _, immobile := range snapshot {
			owned[immobile.ID] = immobile
		}
		for _, id := range assigned {
			if _, ok := owned[id]; !ok {
				return validationError("immobile %d does not belong to origin partita %d", id, origine.ID)
			}
		}

		last := len(in.NuovePartite) - 1
		var remaining int64
		for i, target := range in.NuovePartite {
			dest, err := createPartitaTx(tx, actor, CreatePartitaInput{
				ComuneID:          origine.ComuneID,
				Numero:            target.Numero,
				Suffisso:          target.Suffisso,
				Tipo:              target.Tipo,
				DataImpianto:      in.DataVariazione,
				NumeroProvenienza: provenienzaFor(origine, target.NumeroProvenienza),
			})
			if err != nil {
				return err
			}
			for _, link := range target.Possessori {
				if _, err := addPossessoreLinkTx(tx, actor, dest, link); err != nil {
					return err
				}
			}
			for _, id := range target.ImmobileIDs {
				immobile := owned[id]
				if err := moveImmobileTx(tx, actor, &immobile, dest); err != nil {
					return err
				}
			}

			v := models.Variazione{
				Tipo:                  models.VariazioneFrazionamento,
				DataVariazione:        in.DataVariazione,
				PartitaOrigineID:      origine.ID,
				PartitaDestinazioneID: &dest.ID,
				Note:                  trimOptional(in.Note),
			}
			in.Contratto.applyTo(&v)
			if i == last {
				if remaining, err = countWhere(tx, &models.Immobile{}, "partita_id = ?", origine.ID); err != nil {
					return err
				}
				v.ChiusuraOrigine = remaining == 0
			}
			if err := insertVariazione(tx, actor, &v); err != nil {
				return err
			}
			result.Variazioni = append(result.Variazioni, v)

			aggregate, err := loadAggregate(tx, dest.ID)
			if err != nil {
				return err
			}
			result.Destinazioni = append(result.Destinazioni, aggregate)
		}

		result.OriginOutcome = OriginStillActive
		if remaining == 0 {
			if err := closePartitaTx(tx, actor, origine, in.DataVariazione); err != nil {
				return err
			}
			result.OriginOutcome = OriginClosed
		}
		result.Origine, err = loadAggregate(tx, origine.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("partita split",
		zap.Uint("origin_id", result.Origine.ID),
		zap.Int("targets", len(result.Destinazioni)),
		zap.Int("immobili_moved", len(assigned)),
		zap.String("outcome", string(result.OriginOutcome)),
		zap.String("user_id", actor.UserID),
	)
	return result, nil
}

// DuplicatePartita copies a partita under a new numero in the same comune.
// Links and immobili are copied into new rows; the origin is never modified.
func DuplicatePartita(ctx context.Context, db *gorm.DB, actor ActorContext, in DuplicateInput) (*models.Partita, error) {
	var aggregate *models.Partita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		origine, err := lockPartita(tx, in.OrigineID)
		if err != nil {
			return err
		}

		tipo := in.Tipo
		if tipo == "" {
			tipo = origine.Tipo
		}
		dataImpianto := in.DataImpianto
		if dataImpianto.IsZero() {
			dataImpianto = origine.DataImpianto
		}
		dest, err := createPartitaTx(tx, actor, CreatePartitaInput{
			ComuneID:          origine.ComuneID,
			Numero:            in.Numero,
			Suffisso:          in.Suffisso,
			Tipo:              tipo,
			DataImpianto:      dataImpianto,
			NumeroProvenienza: provenienzaFor(origine, in.NumeroProvenienza),
		})
		if err != nil {
			return err
		}

		if in.MantenerePossessori {
			var links []models.PartitaPossessore
			if err := tx.Where("partita_id = ?", origine.ID).Order("id ASC").Find(&links).Error; err != nil {
				return err
			}
			for _, link := range links {
				copied := LinkInput{
					PossessoreID: link.PossessoreID,
					TipoPartita:  link.TipoPartita,
					Titolo:       link.Titolo,
					Quota:        link.Quota,
				}
				if _, err := addPossessoreLinkTx(tx, actor, dest, copied); err != nil {
					return err
				}
			}
		}

		if in.MantenereImmobili {
			var immobili []models.Immobile
			if err := tx.Where("partita_id = ?", origine.ID).Order("id ASC").Find(&immobili).Error; err != nil {
				return err
			}
			for _, immobile := range immobili {
				copied := ImmobileInput{
					Natura:          immobile.Natura,
					LocalitaID:      immobile.LocalitaID,
					Classificazione: immobile.Classificazione,
					Consistenza:     immobile.Consistenza,
					NumeroPiani:     immobile.NumeroPiani,
					NumeroVani:      immobile.NumeroVani,
				}
				if _, err := addImmobileTx(tx, actor, dest, copied); err != nil {
					return err
				}
			}
		}

		aggregate, err = loadAggregate(tx, dest.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("partita duplicated",
		zap.Uint("origin_id", in.OrigineID),
		zap.Uint("partita_id", aggregate.ID),
		zap.Bool("possessori", in.MantenerePossessori),
		zap.Bool("immobili", in.MantenereImmobili),
		zap.String("user_id", actor.UserID),
	)
	return aggregate, nil
}

// TransferImmobile moves a single immobile to another attiva partita. With
// RegistraVariazione the move is recorded in the ledger and, like a voltura,
// closes the source when it leaves it empty.
func TransferImmobile(ctx context.Context, db *gorm.DB, actor ActorContext, in TransferImmobileInput) (*TransferImmobileResult, error) {
	if in.RegistraVariazione {
		if in.DataVariazione.IsZero() {
			return nil, validationError("data_variazione is required")
		}
		if in.TipoVariazione = strings.TrimSpace(in.TipoVariazione); in.TipoVariazione == "" {
			in.TipoVariazione = models.VariazioneTrasferimento
		}
	}

	result := &TransferImmobileResult{}
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		var immobile models.Immobile
		if err := tx.First(&immobile, in.ImmobileID).Error; err != nil {
			return translateDBError(err, "immobile", in.ImmobileID)
		}
		sourceID := immobile.PartitaID
		if sourceID == in.DestinazioneID {
			return invalidState("immobile", immobile.ID, "already on destination partita")
		}

		// Lock both partite in id order, then the immobile
		source, dest, err := lockPartitePair(tx, sourceID, in.DestinazioneID)
		if err != nil {
			return err
		}
		if err := forUpdate(tx).First(&immobile, in.ImmobileID).Error; err != nil {
			return translateDBError(err, "immobile", in.ImmobileID)
		}
		if immobile.PartitaID != sourceID {
			return invalidState("immobile", immobile.ID, "moved by a concurrent operation")
		}
		if in.RegistraVariazione {
			if !source.IsAttiva() {
				return invalidState("partita", source.ID, "origin is not attiva")
			}
			if err := requireCatalogOption(tx, models.CatalogKeyTipoVariazione, "tipo_variazione", in.TipoVariazione); err != nil {
				return err
			}
		}

		if err := moveImmobileTx(tx, actor, &immobile, dest); err != nil {
			return err
		}
		result.Immobile = immobile
		result.OriginOutcome = OriginStillActive
		if !source.IsAttiva() {
			result.OriginOutcome = OriginClosed
		}

		if in.RegistraVariazione {
			remaining, err := countWhere(tx, &models.Immobile{}, "partita_id = ?", source.ID)
			if err != nil {
				return err
			}
			v := models.Variazione{
				Tipo:                  in.TipoVariazione,
				DataVariazione:        in.DataVariazione,
				PartitaOrigineID:      source.ID,
				PartitaDestinazioneID: &dest.ID,
				Note:                  trimOptional(in.Note),
				ChiusuraOrigine:       remaining == 0,
			}
			in.Contratto.applyTo(&v)
			if err := insertVariazione(tx, actor, &v); err != nil {
				return err
			}
			result.Variazione = &v
			if remaining == 0 {
				if err := closePartitaTx(tx, actor, source, in.DataVariazione); err != nil {
					return err
				}
				result.OriginOutcome = OriginClosed
			}
		}

		if result.Origine, err = loadAggregate(tx, source.ID); err != nil {
			return err
		}
		result.Destinazione, err = loadAggregate(tx, dest.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("immobile transferred",
		zap.Uint("immobile_id", result.Immobile.ID),
		zap.Uint("origin_id", result.Origine.ID),
		zap.Uint("destination_id", result.Destinazione.ID),
		zap.Bool("variazione", result.Variazione != nil),
		zap.String("outcome", string(result.OriginOutcome)),
		zap.String("user_id", actor.UserID),
	)
	return result, nil
}

// lockActiveOrigin locks the origin row and requires it to be attiva
func lockActiveOrigin(tx *gorm.DB, id uint) (*models.Partita, error) {
	origine, err := lockPartita(tx, id)
	if err != nil {
		return nil, err
	}
	if !origine.IsAttiva() {
		return nil, invalidState("partita", id, "origin is not attiva")
	}
	return origine, nil
}

// lockPartitePair locks two partite in ascending id order and returns them as (a, b)
func lockPartitePair(tx *gorm.DB, aID, bID uint) (*models.Partita, *models.Partita, error) {
	firstID, secondID := aID, bID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := lockPartita(tx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := lockPartita(tx, secondID)
	if err != nil {
		return nil, nil, err
	}
	if first.ID == aID {
		return first, second, nil
	}
	return second, first, nil
}

// lockImmobiliOf locks and returns the immobili currently on a partita
func lockImmobiliOf(tx *gorm.DB, partitaID uint) ([]models.Immobile, error) {
	var immobili []models.Immobile
	err := forUpdate(tx).Where("partita_id = ?", partitaID).Order("id ASC").Find(&immobili).Error
	return immobili, err
}

// selectOwnedImmobili resolves the requested ids against the origin snapshot.
// A nil request selects the whole snapshot.
func selectOwnedImmobili(origineID uint, snapshot []models.Immobile, ids []uint) ([]models.Immobile, error) {
	if ids == nil {
		return snapshot, nil
	}
	owned := make(map[uint]models.Immobile, len(snapshot))
	for _, immobile := range snapshot {
		owned[immobile.ID] = immobile
	}
	selected := make([]models.Immobile, 0, len(ids))
	for _, id := range ids {
		immobile, ok := owned[id]
		if !ok {
			return nil, validationError("immobile %d does not belong to origin partita %d", id, origineID)
		}
		selected = append(selected, immobile)
	}
	return selected, nil
}

func rejectDuplicateIDs(ids []uint) error {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return validationError("immobile %d is assigned more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// provenienzaFor picks the numero_provenienza of a partita derived from origine
func provenienzaFor(origine *models.Partita, explicit *string) *string {
	if v := trimOptional(explicit); v != nil {
		return v
	}
	if PropagateNumeroProvenienza {
		ref := origine.Riferimento()
		return &ref
	}
	return nil
}
