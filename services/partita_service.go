package services

import (
	"context"
	"strings"
	"time"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// CreatePartitaInput identifies a new partita
type CreatePartitaInput struct {
	ComuneID          uint
	Numero            int
	Suffisso          string
	Tipo              string
	DataImpianto      time.Time
	NumeroProvenienza *string
}

func (in *CreatePartitaInput) normalize() error {
	in.Suffisso = strings.TrimSpace(in.Suffisso)
	if in.ComuneID == 0 {
		return validationError("comune_id is required")
	}
	if in.Numero <= 0 {
		return validationError("numero_partita must be positive")
	}
	if in.Tipo == "" {
		in.Tipo = models.PartitaTipoPrincipale
	}
	if !models.IsValidPartitaTipo(in.Tipo) {
		return validationError("invalid partita tipo %q", in.Tipo)
	}
	if in.DataImpianto.IsZero() {
		return validationError("data_impianto is required")
	}
	in.NumeroProvenienza = trimOptional(in.NumeroProvenienza)
	return nil
}

// UpdatePartitaInput holds the attributes editable in place.
// Stato and data_chiusura only change through closure.
type UpdatePartitaInput struct {
	Tipo              string
	DataImpianto      time.Time
	NumeroProvenienza *string
}

// LinkInput attaches a possessore to a partita
type LinkInput struct {
	PossessoreID uint
	TipoPartita  string
	Titolo       string
	Quota        *string
}

func (in *LinkInput) normalize() error {
	in.Titolo = strings.TrimSpace(in.Titolo)
	if in.PossessoreID == 0 {
		return validationError("possessore_id is required")
	}
	if in.Titolo == "" {
		return validationError("titolo is required for possessore %d", in.PossessoreID)
	}
	if in.TipoPartita == "" {
		in.TipoPartita = models.PartitaTipoPrincipale
	}
	if !models.IsValidPartitaTipo(in.TipoPartita) {
		return validationError("invalid tipo_partita %q", in.TipoPartita)
	}
	in.Quota = trimOptional(in.Quota)
	return nil
}

// LinkUpdate edits title, share and relation type of an existing link
type LinkUpdate struct {
	TipoPartita string
	Titolo      string
	Quota       *string
}

// ImmobileInput carries the attributes of an immobile
type ImmobileInput struct {
	Natura          string
	LocalitaID      *uint
	Classificazione *string
	Consistenza     *string
	NumeroPiani     *int
	NumeroVani      *int
}

func (in *ImmobileInput) normalize() error {
	in.Natura = strings.TrimSpace(in.Natura)
	if in.Natura == "" {
		return validationError("natura is required")
	}
	if in.NumeroPiani != nil && *in.NumeroPiani < 0 {
		return validationError("numero_piani cannot be negative")
	}
	if in.NumeroVani != nil && *in.NumeroVani < 0 {
		return validationError("numero_vani cannot be negative")
	}
	in.Classificazione = trimOptional(in.Classificazione)
	in.Consistenza = trimOptional(in.Consistenza)
	return nil
}

// PartitaFilters narrows SearchPartite
type PartitaFilters struct {
	ComuneID       uint
	Numero         *int
	Suffisso       *string
	Stato          string
	PossessoreID   uint
	NomePossessore string
}

// PartitaSummary is one search row with its association counts
type PartitaSummary struct {
	ID              uint       `json:"id"`
	ComuneID        uint       `json:"comune_id"`
	ComuneNome      string     `json:"comune_nome"`
	NumeroPartita   int        `json:"numero_partita"`
	SuffissoPartita string     `json:"suffisso_partita"`
	Tipo            string     `json:"tipo"`
	Stato           string     `json:"stato"`
	DataImpianto    time.Time  `json:"data_impianto"`
	DataChiusura    *time.Time `json:"data_chiusura,omitempty"`
	NumPossessori   int64      `json:"num_possessori"`
	NumImmobili     int64      `json:"num_immobili"`
}

// CreatePartita opens a new attiva partita
func CreatePartita(ctx context.Context, db *gorm.DB, actor ActorContext, in CreatePartitaInput) (*models.Partita, error) {
	var partita *models.Partita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		var err error
		partita, err = createPartitaTx(tx, actor, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return partita, nil
}

// ClosePartita marks an empty attiva partita as inattiva
func ClosePartita(ctx context.Context, db *gorm.DB, actor ActorContext, partitaID uint, dataChiusura time.Time) (*models.Partita, error) {
	var partita *models.Partita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		var err error
		if partita, err = lockPartita(tx, partitaID); err != nil {
			return err
		}
		if dataChiusura.Before(partita.DataImpianto) {
			return validationError("data_chiusura precedes data_impianto of partita %d", partita.ID)
		}
		return closePartitaTx(tx, actor, partita, dataChiusura)
	})
	if err != nil {
		return nil, err
	}
	return partita, nil
}

// UpdatePartita edits tipo, data_impianto and numero_provenienza
func UpdatePartita(ctx context.Context, db *gorm.DB, actor ActorContext, partitaID uint, in UpdatePartitaInput) (*models.Partita, error) {
	if in.Tipo == "" {
		in.Tipo = models.PartitaTipoPrincipale
	}
	if !models.IsValidPartitaTipo(in.Tipo) {
		return nil, validationError("invalid partita tipo %q", in.Tipo)
	}
	if in.DataImpianto.IsZero() {
		return nil, validationError("data_impianto is required")
	}

	var partita *models.Partita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		var err error
		if partita, err = lockPartita(tx, partitaID); err != nil {
			return err
		}
		if partita.DataChiusura != nil && partita.DataChiusura.Before(in.DataImpianto) {
			return validationError("data_impianto follows data_chiusura")
		}
		before := *partita
		updates := map[string]interface{}{
			"tipo":               in.Tipo,
			"data_impianto":      in.DataImpianto,
			"numero_provenienza": trimOptional(in.NumeroProvenienza),
		}
		if err := tx.Model(partita).Updates(updates).Error; err != nil {
			return translateDBError(err, "partita", partitaID)
		}
		if partita, err = lockPartita(tx, partitaID); err != nil {
			return err
		}
		return recordAudit(tx, actor, "partite", models.AuditOperationUpdate, partitaID, before, *partita)
	})
	if err != nil {
		return nil, err
	}
	return partita, nil
}

// GetPartita retrieves the partita row only
func GetPartita(db *gorm.DB, id uint) (*models.Partita, error) {
	var partita models.Partita
	if err := db.First(&partita, id).Error; err != nil {
		return nil, translateDBError(err, "partita", id)
	}
	return &partita, nil
}

// GetPartitaAggregate retrieves the partita with its links and immobili
func GetPartitaAggregate(db *gorm.DB, id uint) (*models.Partita, error) {
	return loadAggregate(db, id)
}

// AddPossessoreLink links a possessore to an attiva partita
func AddPossessoreLink(ctx context.Context, db *gorm.DB, actor ActorContext, partitaID uint, in LinkInput) (*models.PartitaPossessore, error) {
	var link *models.PartitaPossessore
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		partita, err := lockPartita(tx, partitaID)
		if err != nil {
			return err
		}
		link, err = addPossessoreLinkTx(tx, actor, partita, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateLink edits title, share and relation type of a link
func UpdateLink(ctx context.Context, db *gorm.DB, actor ActorContext, linkID uint, in LinkUpdate) (*models.PartitaPossessore, error) {
	titolo := strings.TrimSpace(in.Titolo)
	if titolo == "" {
		return nil, validationError("titolo is required")
	}
	if in.TipoPartita != "" && !models.IsValidPartitaTipo(in.TipoPartita) {
		return nil, validationError("invalid tipo_partita %q", in.TipoPartita)
	}

	var link models.PartitaPossessore
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&link, linkID).Error; err != nil {
			return translateDBError(err, "partita_possessore", linkID)
		}
		before := link
		link.Titolo = titolo
		link.Quota = trimOptional(in.Quota)
		if in.TipoPartita != "" {
			link.TipoPartita = in.TipoPartita
		}
		if err := tx.Omit("Possessore").Save(&link).Error; err != nil {
			return translateDBError(err, "partita_possessore", linkID)
		}
		return recordAudit(tx, actor, "partita_possessore", models.AuditOperationUpdate, linkID, before, link)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// RemoveLink deletes a link; neither endpoint is touched
func RemoveLink(ctx context.Context, db *gorm.DB, actor ActorContext, linkID uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var link models.PartitaPossessore
		if err := forUpdate(tx).First(&link, linkID).Error; err != nil {
			return translateDBError(err, "partita_possessore", linkID)
		}
		if err := tx.Delete(&models.PartitaPossessore{}, linkID).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "partita_possessore", models.AuditOperationDelete, linkID, link, nil)
	})
}

// AddImmobile records a new immobile on an attiva partita
func AddImmobile(ctx context.Context, db *gorm.DB, actor ActorContext, partitaID uint, in ImmobileInput) (*models.Immobile, error) {
	var immobile *models.Immobile
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		partita, err := lockPartita(tx, partitaID)
		if err != nil {
			return err
		}
		immobile, err = addImmobileTx(tx, actor, partita, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return immobile, nil
}

// MoveImmobile reassigns an immobile to another attiva partita
func MoveImmobile(ctx context.Context, db *gorm.DB, actor ActorContext, immobileID, destPartitaID uint) (*models.Immobile, error) {
	var immobile models.Immobile
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		dest, err := lockPartita(tx, destPartitaID)
		if err != nil {
			return err
		}
		if err := forUpdate(tx).First(&immobile, immobileID).Error; err != nil {
			return translateDBError(err, "immobile", immobileID)
		}
		return moveImmobileTx(tx, actor, &immobile, dest)
	})
	if err != nil {
		return nil, err
	}
	return &immobile, nil
}

// GetImmobile retrieves an immobile by ID
func GetImmobile(db *gorm.DB, id uint) (*models.Immobile, error) {
	var immobile models.Immobile
	if err := db.First(&immobile, id).Error; err != nil {
		return nil, translateDBError(err, "immobile", id)
	}
	return &immobile, nil
}

// UpdateImmobile edits the attributes of an immobile; its partita is unchanged
func UpdateImmobile(ctx context.Context, db *gorm.DB, actor ActorContext, immobileID uint, in ImmobileInput) (*models.Immobile, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var immobile models.Immobile
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&immobile, immobileID).Error; err != nil {
			return translateDBError(err, "immobile", immobileID)
		}
		if err := requireLocalita(tx, in.LocalitaID); err != nil {
			return err
		}
		before := immobile
		immobile.Natura = in.Natura
		immobile.LocalitaID = in.LocalitaID
		immobile.Classificazione = in.Classificazione
		immobile.Consistenza = in.Consistenza
		immobile.NumeroPiani = in.NumeroPiani
		immobile.NumeroVani = in.NumeroVani
		if err := tx.Save(&immobile).Error; err != nil {
			return translateDBError(err, "immobile", immobileID)
		}
		return recordAudit(tx, actor, "immobili", models.AuditOperationUpdate, immobileID, before, immobile)
	})
	if err != nil {
		return nil, err
	}
	return &immobile, nil
}

// DeleteImmobile removes an immobile from the registry
func DeleteImmobile(ctx context.Context, db *gorm.DB, actor ActorContext, immobileID uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var immobile models.Immobile
		if err := forUpdate(tx).First(&immobile, immobileID).Error; err != nil {
			return translateDBError(err, "immobile", immobileID)
		}
		if err := tx.Delete(&models.Immobile{}, immobileID).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "immobili", models.AuditOperationDelete, immobileID, immobile, nil)
	})
}

// SearchPartite lists partite matching the filters with link and immobile counts
func SearchPartite(db *gorm.DB, filters PartitaFilters, page, pageSize int) ([]PartitaSummary, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	filtered := func() *gorm.DB {
		query := db.Table("partite AS p").Joins("JOIN comuni c ON c.id = p.comune_id")
		if filters.ComuneID != 0 {
			query = query.Where("p.comune_id = ?", filters.ComuneID)
		}
		if filters.Numero != nil {
			query = query.Where("p.numero_partita = ?", *filters.Numero)
		}
		if filters.Suffisso != nil {
			query = query.Where("p.suffisso_partita = ?", strings.TrimSpace(*filters.Suffisso))
		}
		if filters.Stato != "" {
			query = query.Where("p.stato = ?", filters.Stato)
		}
		if filters.PossessoreID != 0 {
			query = query.Where("p.id IN (SELECT partita_id FROM partita_possessore WHERE possessore_id = ?)", filters.PossessoreID)
		}
		if nome := strings.TrimSpace(filters.NomePossessore); nome != "" {
			query = query.Where(
				"p.id IN (SELECT pp.partita_id FROM partita_possessore pp JOIN possessori po ON po.id = pp.possessore_id WHERE LOWER(po.nome_completo) LIKE ?)",
				"%"+strings.ToLower(nome)+"%",
			)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []PartitaSummary
	err := filtered().
		Select(`p.id, p.comune_id, c.nome AS comune_nome, p.numero_partita, p.suffisso_partita,
			p.tipo, p.stato, p.data_impianto, p.data_chiusura,
			(SELECT COUNT(*) FROM partita_possessore pp2 WHERE pp2.partita_id = p.id) AS num_possessori,
			(SELECT COUNT(*) FROM immobili i WHERE i.partita_id = p.id) AS num_immobili`).
		Order("c.nome ASC, p.numero_partita ASC, p.suffisso_partita ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	return rows, total, err
}

// createPartitaTx inserts the partita inside tx. The unique index backs the
// pre-check when two transactions race on the same tuple.
func createPartitaTx(tx *gorm.DB, actor ActorContext, in CreatePartitaInput) (*models.Partita, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := requireComune(tx, in.ComuneID); err != nil {
		return nil, err
	}

	var existing []uint
	err := forUpdate(tx).Model(&models.Partita{}).
		Where("comune_id = ? AND numero_partita = ? AND suffisso_partita = ?", in.ComuneID, in.Numero, in.Suffisso).
		Limit(1).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, uniqueViolation("partita", duplicateTupleDetail(in))
	}

	partita := models.Partita{
		ComuneID:          in.ComuneID,
		NumeroPartita:     in.Numero,
		SuffissoPartita:   in.Suffisso,
		Tipo:              in.Tipo,
		Stato:             models.PartitaStatoAttiva,
		DataImpianto:      in.DataImpianto,
		NumeroProvenienza: in.NumeroProvenienza,
	}
	if err := tx.Create(&partita).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, uniqueViolation("partita", duplicateTupleDetail(in))
		}
		return nil, err
	}
	if err := recordAudit(tx, actor, "partite", models.AuditOperationInsert, partita.ID, nil, partita); err != nil {
		return nil, err
	}
	return &partita, nil
}

func duplicateTupleDetail(in CreatePartitaInput) string {
	ref := (&models.Partita{NumeroPartita: in.Numero, SuffissoPartita: in.Suffisso}).Riferimento()
	return "numero " + ref + " already exists in comune"
}

// lockPartita reads the partita row under an exclusive row lock
func lockPartita(tx *gorm.DB, id uint) (*models.Partita, error) {
	var partita models.Partita
	if err := forUpdate(tx).First(&partita, id).Error; err != nil {
		return nil, translateDBError(err, "partita", id)
	}
	return &partita, nil
}

// closePartitaTx closes an attiva partita that owns no immobili.
// Workflows close at data_variazione whatever the origin's data_impianto.
func closePartitaTx(tx *gorm.DB, actor ActorContext, partita *models.Partita, dataChiusura time.Time) error {
	if !partita.IsAttiva() {
		return invalidState("partita", partita.ID, "already inattiva")
	}
	if dataChiusura.IsZero() {
		return validationError("data_chiusura is required")
	}
	n, err := countWhere(tx, &models.Immobile{}, "partita_id = ?", partita.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return invalidState("partita", partita.ID, "still owns immobili")
	}

	before := *partita
	if err := tx.Model(partita).Updates(map[string]interface{}{
		"stato":         models.PartitaStatoInattiva,
		"data_chiusura": dataChiusura,
	}).Error; err != nil {
		return err
	}
	partita.Stato = models.PartitaStatoInattiva
	partita.DataChiusura = &dataChiusura
	return recordAudit(tx, actor, "partite", models.AuditOperationUpdate, partita.ID, before, *partita)
}

// reopenPartitaTx reverts a closure during administrative correction
func reopenPartitaTx(tx *gorm.DB, actor ActorContext, partita *models.Partita) error {
	if partita.IsAttiva() {
		return invalidState("partita", partita.ID, "already attiva")
	}
	before := *partita
	if err := tx.Model(partita).Updates(map[string]interface{}{
		"stato":         models.PartitaStatoAttiva,
		"data_chiusura": nil,
	}).Error; err != nil {
		return err
	}
	partita.Stato = models.PartitaStatoAttiva
	partita.DataChiusura = nil
	return recordAudit(tx, actor, "partite", models.AuditOperationUpdate, partita.ID, before, *partita)
}

func addPossessoreLinkTx(tx *gorm.DB, actor ActorContext, partita *models.Partita, in LinkInput) (*models.PartitaPossessore, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if !partita.IsAttiva() {
		return nil, invalidState("partita", partita.ID, "cannot link possessori to an inattiva partita")
	}
	n, err := countWhere(tx, &models.Possessore{}, "id = ?", in.PossessoreID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, notFound("possessore", in.PossessoreID)
	}
	if n, err = countWhere(tx, &models.PartitaPossessore{}, "partita_id = ? AND possessore_id = ?", partita.ID, in.PossessoreID); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, uniqueViolation("partita_possessore", "possessore already linked to partita")
	}

	link := models.PartitaPossessore{
		PartitaID:    partita.ID,
		PossessoreID: in.PossessoreID,
		TipoPartita:  in.TipoPartita,
		Titolo:       in.Titolo,
		Quota:        in.Quota,
	}
	if err := tx.Create(&link).Error; err != nil {
		return nil, translateDBError(err, "partita_possessore", nil)
	}
	if err := recordAudit(tx, actor, "partita_possessore", models.AuditOperationInsert, link.ID, nil, link); err != nil {
		return nil, err
	}
	return &link, nil
}

func addImmobileTx(tx *gorm.DB, actor ActorContext, partita *models.Partita, in ImmobileInput) (*models.Immobile, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if !partita.IsAttiva() {
		return nil, invalidState("partita", partita.ID, "cannot add immobili to an inattiva partita")
	}
	if err := requireLocalita(tx, in.LocalitaID); err != nil {
		return nil, err
	}

	immobile := models.Immobile{
		PartitaID:       partita.ID,
		Natura:          in.Natura,
		LocalitaID:      in.LocalitaID,
		Classificazione: in.Classificazione,
		Consistenza:     in.Consistenza,
		NumeroPiani:     in.NumeroPiani,
		NumeroVani:      in.NumeroVani,
	}
	if err := tx.Create(&immobile).Error; err != nil {
		return nil, translateDBError(err, "immobile", nil)
	}
	if err := recordAudit(tx, actor, "immobili", models.AuditOperationInsert, immobile.ID, nil, immobile); err != nil {
		return nil, err
	}
	return &immobile, nil
}

// moveImmobileTx reassigns a locked immobile to dest
func moveImmobileTx(tx *gorm.DB, actor ActorContext, immobile *models.Immobile, dest *models.Partita) error {
	if immobile.PartitaID == dest.ID {
		return invalidState("immobile", immobile.ID, "already on destination partita")
	}
	if !dest.IsAttiva() {
		return invalidState("partita", dest.ID, "destination is not attiva")
	}

	before := *immobile
	if err := tx.Model(immobile).Update("partita_id", dest.ID).Error; err != nil {
		return err
	}
	immobile.PartitaID = dest.ID
	return recordAudit(tx, actor, "immobili", models.AuditOperationUpdate, immobile.ID, before, *immobile)
}

func requireLocalita(tx *gorm.DB, localitaID *uint) error {
	if localitaID == nil {
		return nil
	}
	n, err := countWhere(tx, &models.Localita{}, "id = ?", *localitaID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("localita", *localitaID)
	}
	return nil
}

// loadAggregate reads a partita with its links (and their possessori) and immobili
func loadAggregate(tx *gorm.DB, id uint) (*models.Partita, error) {
	var partita models.Partita
	err := tx.
		Preload("Possessori", func(db *gorm.DB) *gorm.DB { return db.Order("partita_possessore.id ASC") }).
		Preload("Possessori.Possessore").
		Preload("Immobili", func(db *gorm.DB) *gorm.DB { return db.Order("immobili.id ASC") }).
		First(&partita, id).Error
	if err != nil {
		return nil, translateDBError(err, "partita", id)
	}
	return &partita, nil
}
