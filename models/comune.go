package models

import "time"

// Comune is a municipality of the registry
type Comune struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Nome            string  `gorm:"not null;uniqueIndex:idx_comune_nome" json:"nome"`
	Provincia       string  `gorm:"not null" json:"provincia"`
	Regione         string  `gorm:"not null" json:"regione"`
	CodiceCatastale *string `json:"codice_catastale,omitempty"`
	PeriodoID       *uint   `json:"periodo_id,omitempty"`

	DataIstituzione  *time.Time `gorm:"type:date" json:"data_istituzione,omitempty"`
	DataSoppressione *time.Time `gorm:"type:date" json:"data_soppressione,omitempty"`
	Note             *string    `gorm:"type:text" json:"note,omitempty"`
}

// TableName specifies the table name for Comune model
func (Comune) TableName() string {
	return "comuni"
}

// Sezione is a cadastral section belonging to exactly one Comune
type Sezione struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ComuneID      uint    `gorm:"not null;index" json:"comune_id"`
	NomeSezione   string  `gorm:"not null" json:"nome_sezione"`
	CodiceSezione *string `json:"codice_sezione,omitempty"`
	Note          *string `gorm:"type:text" json:"note,omitempty"`
}

// TableName specifies the table name for Sezione model
func (Sezione) TableName() string {
	return "sezioni"
}
