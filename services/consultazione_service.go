package services

import (
	"context"
	"strings"
	"time"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// ConsultazioneInput records a reading-room consultation
type ConsultazioneInput struct {
	DataConsultazione       time.Time
	Richiedente             string
	DocumentoIdentita       *string
	Motivazione             *string
	MaterialeConsultato     string
	FunzionarioAutorizzante *string
}

// ConsultazioneFilters narrows ListConsultazioni
type ConsultazioneFilters struct {
	Richiedente string
	DateFrom    time.Time
	DateTo      time.Time
}

// RegistraConsultazione appends an entry to the consultation register
func RegistraConsultazione(ctx context.Context, db *gorm.DB, actor ActorContext, in ConsultazioneInput) (*models.Consultazione, error) {
	richiedente := strings.TrimSpace(in.Richiedente)
	materiale := strings.TrimSpace(in.MaterialeConsultato)
	if richiedente == "" {
		return nil, validationError("richiedente is required")
	}
	if materiale == "" {
		return nil, validationError("materiale_consultato is required")
	}
	if in.DataConsultazione.IsZero() {
		return nil, validationError("data_consultazione is required")
	}

	consultazione := models.Consultazione{
		DataConsultazione:       in.DataConsultazione,
		Richiedente:             richiedente,
		DocumentoIdentita:       trimOptional(in.DocumentoIdentita),
		Motivazione:             trimOptional(in.Motivazione),
		MaterialeConsultato:     materiale,
		FunzionarioAutorizzante: trimOptional(in.FunzionarioAutorizzante),
	}

	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&consultazione).Error; err != nil {
			return translateDBError(err, "consultazione", nil)
		}
		return recordAudit(tx, actor, "consultazioni", models.AuditOperationInsert, consultazione.ID, nil, consultazione)
	})
	if err != nil {
		return nil, err
	}
	return &consultazione, nil
}

// ListConsultazioni lists register entries, newest first
func ListConsultazioni(db *gorm.DB, filters ConsultazioneFilters, page, pageSize int) ([]models.Consultazione, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := db.Model(&models.Consultazione{})

	if r := strings.TrimSpace(filters.Richiedente); r != "" {
		query = query.Where("LOWER(richiedente) LIKE ?", "%"+strings.ToLower(r)+"%")
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("data_consultazione >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("data_consultazione <= ?", filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Consultazione
	err := query.Order("data_consultazione DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}
