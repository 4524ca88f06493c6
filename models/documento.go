package models

import "time"

// Documento rilevanza values
const (
	RilevanzaPrimaria   = "primaria"
	RilevanzaSecondaria = "secondaria"
	RilevanzaCorrelata  = "correlata"
)

// Documento is an archival document; only its path is recorded
type Documento struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Titolo        string  `gorm:"not null" json:"titolo"`
	TipoDocumento string  `gorm:"not null;index" json:"tipo_documento"`
	PercorsoFile  *string `json:"percorso_file,omitempty"`
	Descrizione   *string `gorm:"type:text" json:"descrizione,omitempty"`
	Anno          *int    `json:"anno,omitempty"`
	PeriodoID     *uint   `json:"periodo_id,omitempty"`
}

// TableName specifies the table name for Documento model
func (Documento) TableName() string {
	return "documenti"
}

// DocumentoPartita associates a document with a partita
type DocumentoPartita struct {
	DocumentoID uint      `gorm:"primaryKey;autoIncrement:false" json:"documento_id"`
	PartitaID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"partita_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Rilevanza string  `gorm:"not null" json:"rilevanza"`
	Note      *string `gorm:"type:text" json:"note,omitempty"`

	Documento *Documento `gorm:"foreignKey:DocumentoID" json:"documento,omitempty"`
}

// TableName specifies the table name for DocumentoPartita model
func (DocumentoPartita) TableName() string {
	return "documento_partita"
}

// IsValidRilevanza checks rilevanza against the fixed set
func IsValidRilevanza(r string) bool {
	switch r {
	case RilevanzaPrimaria, RilevanzaSecondaria, RilevanzaCorrelata:
		return true
	}
	return false
}
