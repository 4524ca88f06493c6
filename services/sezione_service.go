package services

import (
	"context"
	"strings"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// SezioneInput carries the editable attributes of a Sezione
type SezioneInput struct {
	ComuneID      uint
	NomeSezione   string
	CodiceSezione *string
	Note          *string
}

// CreateSezione adds a section to an existing comune
func CreateSezione(ctx context.Context, db *gorm.DB, actor ActorContext, in SezioneInput) (*models.Sezione, error) {
	if strings.TrimSpace(in.NomeSezione) == "" {
		return nil, validationError("nome_sezione is required")
	}

	sezione := models.Sezione{
		ComuneID:      in.ComuneID,
		NomeSezione:   strings.TrimSpace(in.NomeSezione),
		CodiceSezione: trimOptional(in.CodiceSezione),
		Note:          trimOptional(in.Note),
	}

	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := requireComune(tx, in.ComuneID); err != nil {
			return err
		}
		if err := tx.Create(&sezione).Error; err != nil {
			return translateDBError(err, "sezione", nil)
		}
		return recordAudit(tx, actor, "sezioni", models.AuditOperationInsert, sezione.ID, nil, sezione)
	})
	if err != nil {
		return nil, err
	}
	return &sezione, nil
}

// GetSezione retrieves a sezione by ID
func GetSezione(db *gorm.DB, id uint) (*models.Sezione, error) {
	var sezione models.Sezione
	if err := db.First(&sezione, id).Error; err != nil {
		return nil, translateDBError(err, "sezione", id)
	}
	return &sezione, nil
}

// ListSezioniByComune lists the sections of a comune
func ListSezioniByComune(db *gorm.DB, comuneID uint) ([]models.Sezione, error) {
	var sezioni []models.Sezione
	err := db.Where("comune_id = ?", comuneID).Order("nome_sezione ASC").Find(&sezioni).Error
	return sezioni, err
}

// UpdateSezione edits name, code and note; the owning comune never changes
func UpdateSezione(ctx context.Context, db *gorm.DB, actor ActorContext, id uint, in SezioneInput) (*models.Sezione, error) {
	if strings.TrimSpace(in.NomeSezione) == "" {
		return nil, validationError("nome_sezione is required")
	}

	var sezione models.Sezione
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&sezione, id).Error; err != nil {
			return translateDBError(err, "sezione", id)
		}
		before := sezione
		sezione.NomeSezione = strings.TrimSpace(in.NomeSezione)
		sezione.CodiceSezione = trimOptional(in.CodiceSezione)
		sezione.Note = trimOptional(in.Note)
		if err := tx.Save(&sezione).Error; err != nil {
			return translateDBError(err, "sezione", id)
		}
		return recordAudit(tx, actor, "sezioni", models.AuditOperationUpdate, id, before, sezione)
	})
	if err != nil {
		return nil, err
	}
	return &sezione, nil
}

// DeleteSezione removes a section
func DeleteSezione(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var sezione models.Sezione
		if err := forUpdate(tx).First(&sezione, id).Error; err != nil {
			return translateDBError(err, "sezione", id)
		}
		if err := tx.Delete(&models.Sezione{}, id).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "sezioni", models.AuditOperationDelete, id, sezione, nil)
	})
}

// requireComune fails with NotFound when the comune does not exist
func requireComune(tx *gorm.DB, comuneID uint) error {
	n, err := countWhere(tx, &models.Comune{}, "id = ?", comuneID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("comune", comuneID)
	}
	return nil
}
