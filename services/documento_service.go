package services

import (
	"context"
	"strings"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// DocumentoInput carries the attributes of an archival document
type DocumentoInput struct {
	Titolo        string
	TipoDocumento string
	PercorsoFile  *string
	Descrizione   *string
	Anno          *int
	PeriodoID     *uint
}

// CreateDocumento registers a document; tipo_documento must be in its catalog
func CreateDocumento(ctx context.Context, db *gorm.DB, actor ActorContext, in DocumentoInput) (*models.Documento, error) {
	titolo := strings.TrimSpace(in.Titolo)
	if titolo == "" {
		return nil, validationError("titolo is required")
	}
	tipo := strings.TrimSpace(in.TipoDocumento)

	documento := models.Documento{
		Titolo:        titolo,
		TipoDocumento: tipo,
		PercorsoFile:  trimOptional(in.PercorsoFile),
		Descrizione:   trimOptional(in.Descrizione),
		Anno:          in.Anno,
		PeriodoID:     in.PeriodoID,
	}

	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if err := requireCatalogOption(tx, models.CatalogKeyTipoDocumento, "tipo_documento", tipo); err != nil {
			return err
		}
		if err := tx.Create(&documento).Error; err != nil {
			return translateDBError(err, "documento", nil)
		}
		return recordAudit(tx, actor, "documenti", models.AuditOperationInsert, documento.ID, nil, documento)
	})
	if err != nil {
		return nil, err
	}
	return &documento, nil
}

// GetDocumento retrieves a document by ID
func GetDocumento(db *gorm.DB, id uint) (*models.Documento, error) {
	var documento models.Documento
	if err := db.First(&documento, id).Error; err != nil {
		return nil, translateDBError(err, "documento", id)
	}
	return &documento, nil
}

// DeleteDocumento removes a document that is linked to no partita
func DeleteDocumento(ctx context.Context, db *gorm.DB, actor ActorContext, id uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var documento models.Documento
		if err := forUpdate(tx).First(&documento, id).Error; err != nil {
			return translateDBError(err, "documento", id)
		}
		n, err := countWhere(tx, &models.DocumentoPartita{}, "documento_id = ?", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return dependencyError("documento", id, "partite link to it")
		}
		if err := tx.Delete(&models.Documento{}, id).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "documenti", models.AuditOperationDelete, id, documento, nil)
	})
}

// LinkDocumentoToPartita links a document to a partita, or updates rilevanza
// and note when the link already exists.
func LinkDocumentoToPartita(ctx context.Context, db *gorm.DB, actor ActorContext, documentoID, partitaID uint, rilevanza string, note *string) (*models.DocumentoPartita, error) {
	if rilevanza == "" {
		rilevanza = models.RilevanzaCorrelata
	}
	if !models.IsValidRilevanza(rilevanza) {
		return nil, validationError("invalid rilevanza %q", rilevanza)
	}

	var link models.DocumentoPartita
	err := inTx(ctx, db, func(tx *gorm.DB) error {
		if _, err := lockPartita(tx, partitaID); err != nil {
			return err
		}
		if n, err := countWhere(tx, &models.Documento{}, "id = ?", documentoID); err != nil {
			return err
		} else if n == 0 {
			return notFound("documento", documentoID)
		}

		err := forUpdate(tx).Where("documento_id = ? AND partita_id = ?", documentoID, partitaID).First(&link).Error
		switch {
		case err == nil:
			before := link
			link.Rilevanza = rilevanza
			link.Note = trimOptional(note)
			if err := tx.Model(&link).
				Where("documento_id = ? AND partita_id = ?", documentoID, partitaID).
				Updates(map[string]interface{}{"rilevanza": link.Rilevanza, "note": link.Note}).Error; err != nil {
				return err
			}
			return recordAudit(tx, actor, "documento_partita", models.AuditOperationUpdate, documentoPartitaKey(documentoID, partitaID), before, link)
		case isRecordNotFound(err):
			link = models.DocumentoPartita{
				DocumentoID: documentoID,
				PartitaID:   partitaID,
				Rilevanza:   rilevanza,
				Note:        trimOptional(note),
			}
			if err := tx.Create(&link).Error; err != nil {
				return translateDBError(err, "documento_partita", nil)
			}
			return recordAudit(tx, actor, "documento_partita", models.AuditOperationInsert, documentoPartitaKey(documentoID, partitaID), nil, link)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UnlinkDocumento removes only the association between document and partita
func UnlinkDocumento(ctx context.Context, db *gorm.DB, actor ActorContext, documentoID, partitaID uint) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		var link models.DocumentoPartita
		err := forUpdate(tx).Where("documento_id = ? AND partita_id = ?", documentoID, partitaID).First(&link).Error
		if err != nil {
			return translateDBError(err, "documento_partita", documentoPartitaKey(documentoID, partitaID))
		}
		if err := tx.Where("documento_id = ? AND partita_id = ?", documentoID, partitaID).
			Delete(&models.DocumentoPartita{}).Error; err != nil {
			return err
		}
		return recordAudit(tx, actor, "documento_partita", models.AuditOperationDelete, documentoPartitaKey(documentoID, partitaID), link, nil)
	})
}

// ListDocumentiByPartita lists the documents linked to a partita, primary ones first
func ListDocumentiByPartita(db *gorm.DB, partitaID uint) ([]models.DocumentoPartita, error) {
	if _, err := GetPartita(db, partitaID); err != nil {
		return nil, err
	}
	var links []models.DocumentoPartita
	err := db.Preload("Documento").
		Where("partita_id = ?", partitaID).
		Order("CASE rilevanza WHEN 'primaria' THEN 0 WHEN 'secondaria' THEN 1 ELSE 2 END, documento_id ASC").
		Find(&links).Error
	return links, err
}

func documentoPartitaKey(documentoID, partitaID uint) string {
	return formatRecordID(documentoID) + ":" + formatRecordID(partitaID)
}
