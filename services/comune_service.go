package services

import (
	"context"
	"strings"
	"time"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// ComuneInput carries the editable attributes of a Comune
type ComuneInput struct {
	Nome             string
	Provincia        string
	Regione          string
	CodiceCatastale  *string
	PeriodoID        *uint
	DataIstituzione  *time.Time
	DataSoppressione *time.Time
	Note             *string
}

func (in ComuneInput) validate() error {
	if strings.TrimSpace(in.Nome) == "" {
		return validationError("nome is required")
	}
	if strings.TrimSpace(in.Provincia) == "" || strings.TrimSpace(in.Regione) == "" {
		return validationError("provincia and regione are required")
	}
	if in.DataIstituzione != nil && in.DataSoppressione != nil && in.DataSoppressione.Before(*in.DataIstituzione) {
		return validationError("data_soppressione precedes data_istituzione")
	}
	return nil
}

func (in ComuneInput) apply(c *models.Comune) {
	c.Nome = strings.TrimSpace(in.Nome)
	c.Provincia = strings.TrimSpace(in.Provincia)
	c.Regione = strings.TrimSpace(in.Regione)
	c.CodiceCatastale = trimOptional(in.CodiceCatastale)
	c.PeriodoID = in.PeriodoID
	c.DataIstituzione = in.DataIstituzione
	c.DataSoppressione = in.DataSoppressione
	c.Note = trimOptional(in.Note)
}

// CreateComune inserts a municipality; nome is unique
func CreateComune(ctx context.Context, db *gorm.DB, actor ActorContext, in ComuneInput) (*models.Comune, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var comune models.Comune
	in.apply(&comune)

	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&comune).Error; err != nil {
			return translateDBError(err, "comune", comune.Nome)
		}
		return recordAudit(tx, actor, "comuni", models.AuditOperationInsert, comune.ID, nil, comune)
	})
	if err != nil {
		return nil, err
	}
	return &comune, nil
}

// GetComune retrieves a comune by ID
func GetComune(db *gorm.DB, id uint) (*models.Comune, error) {
	var comune models.Comune
	if err := db.First(&comune, id).Error; err != nil {
		return nil, translateDBError(err, "comune", id)
	}
	return &comune, nil
}

// ListComuni lists comuni ordered by name, optionally filtered by a name fragment
func ListComuni(db *gorm.DB, nameFilter string) ([]models.Comune, error) {
	var comuni []models.Comune
	query := db.Order("nome ASC")
	if nameFilter = strings.TrimSpace(nameFilter); nameFilter != "" {
		query = query.Where("LOWER(nome) LIKE ?", "%"+strings.ToLower(nameFilter)+"%")
	}
	err := query.Find(&comuni).Error
	return comuni, err
}

// UpdateComune edits a comune in place
func UpdateComune(ctx context.Context, db *gorm.DB, actor ActorContext, id uint, in ComuneInput) (*models.Comune, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var comune models.Comune
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&comune, id).Error; err != nil {
			return translateDBError(err, "comune", id)
		}
		before := comune
		in.apply(&comune)
		if err := tx.Save(&comune).Error; err != nil {
			return translateDBError(err, "comune", id)
		}
		return recordAudit(tx, actor, "comuni", models.AuditOperationUpdate, comune.ID, before, comune)
	})
	if err != nil {
		return nil, err
	}
	return &comune, nil
}

// DeleteComune removes a comune that nothing references
func DeleteComune(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var comune models.Comune
		if err := forUpdate(tx).First(&comune, id).Error; err != nil {
			return translateDBError(err, "comune", id)
		}

		dependents := []struct {
			model interface{}
			query string
			label string
		}{
			{&models.Partita{}, "comune_id = ?", "partite"},
			{&models.Sezione{}, "comune_id = ?", "sezioni"},
			{&models.Possessore{}, "comune_riferimento_id = ?", "possessori"},
			{&models.Localita{}, "comune_id = ?", "localita"},
		}
		for _, dep := range dependents {
			n, err := countWhere(tx, dep.model, dep.query, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return dependencyError("comune", id, dep.label+" reference it")
			}
		}

		if err := tx.Delete(&models.Comune{}, id).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "comuni", models.AuditOperationDelete, id, comune, nil)
	})
}

// SeedComuni creates the listed comuni that do not exist yet, matched by nome
func SeedComuni(ctx context.Context, db *gorm.DB, actor ActorContext, comuni []ComuneInput) (int, error) {
	created := 0
	for _, in := range comuni {
		var existing int64
		if err := db.Model(&models.Comune{}).Where("nome = ?", strings.TrimSpace(in.Nome)).Count(&existing).Error; err != nil {
			return created, err
		}
		if existing > 0 {
			continue
		}
		if _, err := CreateComune(ctx, db, actor, in); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
