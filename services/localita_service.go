package services

import (
	"context"
	"strings"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// LocalitaInput identifies a place by comune, name and optional house number
type LocalitaInput struct {
	ComuneID uint
	Nome     string
	Tipo     string
	Civico   *int
}

func (in *LocalitaInput) normalize() error {
	in.Nome = strings.TrimSpace(in.Nome)
	if in.Nome == "" {
		return validationError("nome is required")
	}
	if in.Tipo == "" {
		in.Tipo = models.LocalitaTipoAltro
	}
	if !models.IsValidLocalitaTipo(in.Tipo) {
		return validationError("invalid localita tipo %q", in.Tipo)
	}
	if in.Civico != nil && *in.Civico <= 0 {
		return validationError("civico must be positive")
	}
	return nil
}

// GetOrCreateLocalita returns the localita matching (comune, nome, civico),
// creating it when absent. The bool reports whether a row was inserted.
func GetOrCreateLocalita(ctx context.Context, db *gorm.DB, actor ActorContext, in LocalitaInput) (*models.Localita, bool, error) {
	if err := in.normalize(); err != nil {
		return nil, false, err
	}

	var localita models.Localita
	created := false
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := requireComune(tx, in.ComuneID); err != nil {
			return err
		}

		query := tx.Where("comune_id = ? AND nome = ?", in.ComuneID, in.Nome)
		if in.Civico == nil {
			query = query.Where("civico IS NULL")
		} else {
			query = query.Where("civico = ?", *in.Civico)
		}
		err := query.First(&localita).Error
		if err == nil {
			return nil
		}
		if !isRecordNotFound(err) {
			return err
		}

		localita = models.Localita{ComuneID: in.ComuneID, Nome: in.Nome, Tipo: in.Tipo, Civico: in.Civico}
		if err := tx.Create(&localita).Error; err != nil {
			return translateDBError(err, "localita", nil)
		}
		created = true
		return recordAudit(tx, actor, "localita", models.AuditOperationInsert, localita.ID, nil, localita)
	})
	if err != nil {
		return nil, false, err
	}
	return &localita, created, nil
}

// GetLocalita retrieves a localita by ID
func GetLocalita(db *gorm.DB, id uint) (*models.Localita, error) {
	var localita models.Localita
	if err := db.First(&localita, id).Error; err != nil {
		return nil, translateDBError(err, "localita", id)
	}
	return &localita, nil
}

// ListLocalitaByComune lists the places of a comune
func ListLocalitaByComune(db *gorm.DB, comuneID uint) ([]models.Localita, error) {
	var localita []models.Localita
	err := db.Where("comune_id = ?", comuneID).Order("nome ASC, civico ASC").Find(&localita).Error
	return localita, err
}

// UpdateLocalita edits nome, tipo and civico in place
func UpdateLocalita(ctx context.Context, db *gorm.DB, actor ActorContext, id uint, in LocalitaInput) (*models.Localita, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var localita models.Localita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&localita, id).Error; err != nil {
			return translateDBError(err, "localita", id)
		}
		before := localita
		localita.Nome = in.Nome
		localita.Tipo = in.Tipo
		localita.Civico = in.Civico
		if err := tx.Save(&localita).Error; err != nil {
			return translateDBError(err, "localita", id)
		}
		return recordAudit(tx, actor, "localita", models.AuditOperationUpdate, id, before, localita)
	})
	if err != nil {
		return nil, err
	}
	return &localita, nil
}

// DeleteLocalita removes a localita no immobile points at
func DeleteLocalita(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var localita models.Localita
		if err := forUpdate(tx).First(&localita, id).Error; err != nil {
			return translateDBError(err, "localita", id)
		}
		n, err := countWhere(tx, &models.Immobile{}, "localita_id = ?", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return dependencyError("localita", id, "immobili reference it")
		}
		if err := tx.Delete(&models.Localita{}, id).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "localita", models.AuditOperationDelete, id, localita, nil)
	})
}
