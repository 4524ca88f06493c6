package services

import (
	"context"

	"catasto_app_go/logger"
	"catasto_app_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeleteVariazioneResult reports the effects of an administrative correction
type DeleteVariazioneResult struct {
	Variazione      models.Variazione `json:"variazione"`
	OrigineReopened bool              `json:"origine_reopened"`
	Origine         *models.Partita   `json:"origine,omitempty"`
}

// insertVariazione appends a ledger entry; only the workflow engine calls it
func insertVariazione(tx *gorm.DB, actor ActorContext, v *models.Variazione) error {
	if v.DataVariazione.IsZero() {
		return validationError("data_variazione is required")
	}
	if v.PartitaDestinazioneID != nil && *v.PartitaDestinazioneID == v.PartitaOrigineID {
		return validationError("variazione origin and destination must differ")
	}
	if err := tx.Create(v).Error; err != nil {
		return translateDBError(err, "variazione", nil)
	}
	return recordAudit(tx, actor, "variazioni", models.AuditOperationInsert, v.ID, nil, *v)
}

// GetVariazione retrieves a variazione by ID
func GetVariazione(db *gorm.DB, id uint) (*models.Variazione, error) {
	var v models.Variazione
	if err := db.First(&v, id).Error; err != nil {
		return nil, translateDBError(err, "variazione", id)
	}
	return &v, nil
}

// ListVariazioniByPartita lists the events where the partita is origin or destination
func ListVariazioniByPartita(db *gorm.DB, partitaID uint) ([]models.Variazione, error) {
	if _, err := GetPartita(db, partitaID); err != nil {
		return nil, err
	}
	var variazioni []models.Variazione
	err := db.Where("partita_origine_id = ? OR partita_destinazione_id = ?", partitaID, partitaID).
		Order("data_variazione ASC, id ASC").
		Find(&variazioni).Error
	return variazioni, err
}

// DeleteVariazione removes a ledger entry as an administrative correction.
// When the entry is the one that closed its origin and the origin is still
// inattiva, the origin is reopened in the same transaction.
func DeleteVariazione(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) (*DeleteVariazioneResult, error) {
	result := &DeleteVariazioneResult{}
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		var v models.Variazione
		if err := tx.First(&v, id).Error; err != nil {
			return translateDBError(err, "variazione", id)
		}
		origine, err := lockPartita(tx, v.PartitaOrigineID)
		if err != nil {
			return err
		}
		// Re-read under the origin lock so a concurrent correction sees a consistent row
		if err := forUpdate(tx).First(&v, id).Error; err != nil {
			return translateDBError(err, "variazione", id)
		}

		if err := tx.Delete(&models.Variazione{}, id).Error; err != nil {
			return err
		}
		if err := recordAudit(tx, actor, "variazioni", models.AuditOperationDelete, id, v, nil); err != nil {
			return err
		}
		result.Variazione = v

		if v.ChiusuraOrigine && !origine.IsAttiva() {
			if err := reopenPartitaTx(tx, actor, origine); err != nil {
				return err
			}
			result.OrigineReopened = true
		}
		result.Origine, err = loadAggregate(tx, origine.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("variazione deleted",
		zap.Uint("variazione_id", id),
		zap.Uint("origin_id", result.Variazione.PartitaOrigineID),
		zap.Bool("origin_reopened", result.OrigineReopened),
		zap.String("user_id", actor.UserID),
	)
	return result, nil
}
