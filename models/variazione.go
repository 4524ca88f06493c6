package models

import "time"

// Well-known variazione tipi; the tipo_variazione catalog may add more
const (
	VariazioneVendita       = "Vendita"
	VariazioneSuccessione   = "Successione"
	VariazioneFrazionamento = "Frazionamento"
	VariazioneTrasferimento = "Trasferimento"
)

// Variazione is a ledger entry for a legal event moving assets or ownership
// from an origin partita to an optional destination. Rows are never updated.
type Variazione struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Tipo                  string    `gorm:"not null;index" json:"tipo"`
	DataVariazione        time.Time `gorm:"type:date;not null" json:"data_variazione"`
	PartitaOrigineID      uint      `gorm:"not null;index" json:"partita_origine_id"`
	PartitaDestinazioneID *uint     `gorm:"index" json:"partita_destinazione_id,omitempty"`

	// Contract metadata
	TipoContratto *string    `json:"tipo_contratto,omitempty"`
	DataContratto *time.Time `gorm:"type:date" json:"data_contratto,omitempty"`
	Notaio        *string    `json:"notaio,omitempty"`
	Repertorio    *string    `json:"repertorio,omitempty"`
	Note          *string    `gorm:"type:text" json:"note,omitempty"`

	// Set when this event emptied and closed the origin
	ChiusuraOrigine bool `gorm:"not null" json:"chiusura_origine"`
}

// TableName specifies the table name for Variazione model
func (Variazione) TableName() string {
	return "variazioni"
}
