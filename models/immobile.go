package models

import "time"

// Immobile is a physical asset recorded under exactly one partita
type Immobile struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PartitaID       uint    `gorm:"not null;index" json:"partita_id"`
	Natura          string  `gorm:"not null" json:"natura"`
	LocalitaID      *uint   `gorm:"index" json:"localita_id,omitempty"`
	Classificazione *string `json:"classificazione,omitempty"`
	Consistenza     *string `json:"consistenza,omitempty"`
	NumeroPiani     *int    `json:"numero_piani,omitempty"`
	NumeroVani      *int    `json:"numero_vani,omitempty"`
}

// TableName specifies the table name for Immobile model
func (Immobile) TableName() string {
	return "immobili"
}
