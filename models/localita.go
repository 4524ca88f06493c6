package models

import "time"

// Localita types
const (
	LocalitaTipoRegione = "Regione"
	LocalitaTipoVia     = "Via"
	LocalitaTipoBorgata = "Borgata"
	LocalitaTipoAltro   = "Altro"
)

// Localita is a named place inside a Comune; immobili point at it
type Localita struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ComuneID uint   `gorm:"not null;index:idx_localita_lookup" json:"comune_id"`
	Nome     string `gorm:"not null;index:idx_localita_lookup" json:"nome"`
	Tipo     string `gorm:"not null" json:"tipo"`
	Civico   *int   `json:"civico,omitempty"`
}

// TableName specifies the table name for Localita model
func (Localita) TableName() string {
	return "localita"
}

// IsValidLocalitaTipo checks the tipo against the fixed set
func IsValidLocalitaTipo(tipo string) bool {
	switch tipo {
	case LocalitaTipoRegione, LocalitaTipoVia, LocalitaTipoBorgata, LocalitaTipoAltro:
		return true
	}
	return false
}
