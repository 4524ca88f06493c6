package services

import (
	"context"
	"strings"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// PossessoreInput carries the editable attributes of a Possessore
type PossessoreInput struct {
	ComuneRiferimentoID uint
	NomeCompleto        string
	CognomeNome         *string
	Paternita           *string
	Attivo              *bool // nil means true on create and unchanged on update
}

// PossessoreFilters narrows SearchPossessori
type PossessoreFilters struct {
	Nome     string
	ComuneID uint
	Attivo   *bool
}

// PossessorePartita is one parcel a possessore is linked to
type PossessorePartita struct {
	LinkID          uint    `json:"link_id"`
	PartitaID       uint    `json:"partita_id"`
	ComuneID        uint    `json:"comune_id"`
	NumeroPartita   int     `json:"numero_partita"`
	SuffissoPartita string  `json:"suffisso_partita"`
	Stato           string  `json:"stato"`
	TipoPartita     string  `json:"tipo_partita"`
	Titolo          string  `json:"titolo"`
	Quota           *string `json:"quota,omitempty"`
}

// CreatePossessore registers an owner referencing an existing comune
func CreatePossessore(ctx context.Context, db *gorm.DB, actor ActorContext, in PossessoreInput) (*models.Possessore, error) {
	if strings.TrimSpace(in.NomeCompleto) == "" {
		return nil, validationError("nome_completo is required")
	}

	possessore := models.Possessore{
		ComuneRiferimentoID: in.ComuneRiferimentoID,
		NomeCompleto:        strings.TrimSpace(in.NomeCompleto),
		CognomeNome:         trimOptional(in.CognomeNome),
		Paternita:           trimOptional(in.Paternita),
		Attivo:              in.Attivo == nil || *in.Attivo,
	}

	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := requireComune(tx, in.ComuneRiferimentoID); err != nil {
			return err
		}
		if err := tx.Create(&possessore).Error; err != nil {
			return translateDBError(err, "possessore", nil)
		}
		return recordAudit(tx, actor, "possessori", models.AuditOperationInsert, possessore.ID, nil, possessore)
	})
	if err != nil {
		return nil, err
	}
	return &possessore, nil
}

// GetPossessore retrieves a possessore by ID
func GetPossessore(db *gorm.DB, id uint) (*models.Possessore, error) {
	var possessore models.Possessore
	if err := db.First(&possessore, id).Error; err != nil {
		return nil, translateDBError(err, "possessore", id)
	}
	return &possessore, nil
}

// SearchPossessori finds owners by name fragment, comune and active flag
func SearchPossessori(db *gorm.DB, filters PossessoreFilters, page, pageSize int) ([]models.Possessore, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := db.Model(&models.Possessore{})

	if nome := strings.TrimSpace(filters.Nome); nome != "" {
		pattern := "%" + strings.ToLower(nome) + "%"
		query = query.Where("LOWER(nome_completo) LIKE ? OR LOWER(cognome_nome) LIKE ?", pattern, pattern)
	}
	if filters.ComuneID != 0 {
		query = query.Where("comune_riferimento_id = ?", filters.ComuneID)
	}
	if filters.Attivo != nil {
		query = query.Where("attivo = ?", *filters.Attivo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var possessori []models.Possessore
	err := query.Order("nome_completo ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&possessori).Error
	return possessori, total, err
}

// UpdatePossessore edits an owner in place
func UpdatePossessore(ctx context.Context, db *gorm.DB, actor ActorContext, id uint, in PossessoreInput) (*models.Possessore, error) {
	if strings.TrimSpace(in.NomeCompleto) == "" {
		return nil, validationError("nome_completo is required")
	}

	var possessore models.Possessore
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&possessore, id).Error; err != nil {
			return translateDBError(err, "possessore", id)
		}
		before := possessore
		if in.ComuneRiferimentoID != 0 && in.ComuneRiferimentoID != possessore.ComuneRiferimentoID {
			if err := requireComune(tx, in.ComuneRiferimentoID); err != nil {
				return err
			}
			possessore.ComuneRiferimentoID = in.ComuneRiferimentoID
		}
		possessore.NomeCompleto = strings.TrimSpace(in.NomeCompleto)
		possessore.CognomeNome = trimOptional(in.CognomeNome)
		possessore.Paternita = trimOptional(in.Paternita)
		if in.Attivo != nil {
			possessore.Attivo = *in.Attivo
		}
		if err := tx.Save(&possessore).Error; err != nil {
			return translateDBError(err, "possessore", id)
		}
		return recordAudit(tx, actor, "possessori", models.AuditOperationUpdate, id, before, possessore)
	})
	if err != nil {
		return nil, err
	}
	return &possessore, nil
}

// DeletePossessore removes an owner that no partita links to
func DeletePossessore(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var possessore models.Possessore
		if err := forUpdate(tx).First(&possessore, id).Error; err != nil {
			return translateDBError(err, "possessore", id)
		}
		n, err := countWhere(tx, &models.PartitaPossessore{}, "possessore_id = ?", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return dependencyError("possessore", id, "partite link to it")
		}
		if err := tx.Delete(&models.Possessore{}, id).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "possessori", models.AuditOperationDelete, id, possessore, nil)
	})
}

// GetPossessorePartite lists the partite a possessore is linked to
func GetPossessorePartite(db *gorm.DB, possessoreID uint) ([]PossessorePartita, error) {
	if _, err := GetPossessore(db, possessoreID); err != nil {
		return nil, err
	}

	var rows []PossessorePartita
	err := db.Table("partita_possessore AS pp").
		Select("pp.id AS link_id, p.id AS partita_id, p.comune_id, p.numero_partita, p.suffisso_partita, p.stato, pp.tipo_partita, pp.titolo, pp.quota").
		Joins("JOIN partite p ON p.id = pp.partita_id").
		Where("pp.possessore_id = ?", possessoreID).
		Order("p.comune_id ASC, p.numero_partita ASC, p.suffisso_partita ASC").
		Scan(&rows).Error
	return rows, err
}
