package models

import (
	"strconv"
	"time"
)

// Partita tipo values
const (
	PartitaTipoPrincipale = "principale"
	PartitaTipoSecondaria = "secondaria"
)

// Partita stato values
const (
	PartitaStatoAttiva   = "attiva"
	PartitaStatoInattiva = "inattiva"
)

// Partita is the registry folio aggregating ownership links and immobili.
// (ComuneID, NumeroPartita, SuffissoPartita) is unique; no suffix is stored as "".
type Partita struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ComuneID        uint   `gorm:"not null;uniqueIndex:idx_partita_numero,priority:1" json:"comune_id"`
	NumeroPartita   int    `gorm:"not null;uniqueIndex:idx_partita_numero,priority:2" json:"numero_partita"`
	SuffissoPartita string `gorm:"not null;default:'';uniqueIndex:idx_partita_numero,priority:3" json:"suffisso_partita"`

	Tipo              string     `gorm:"not null" json:"tipo"`
	Stato             string     `gorm:"not null;index" json:"stato"`
	DataImpianto      time.Time  `gorm:"type:date;not null" json:"data_impianto"`
	DataChiusura      *time.Time `gorm:"type:date" json:"data_chiusura,omitempty"`
	NumeroProvenienza *string    `json:"numero_provenienza,omitempty"`

	// Loaded only when reading the aggregate
	Possessori []PartitaPossessore `gorm:"foreignKey:PartitaID" json:"possessori,omitempty"`
	Immobili   []Immobile          `gorm:"foreignKey:PartitaID" json:"immobili,omitempty"`
}

// TableName specifies the table name for Partita model
func (Partita) TableName() string {
	return "partite"
}

// IsAttiva reports whether the partita can still receive links and immobili
func (p *Partita) IsAttiva() bool {
	return p.Stato == PartitaStatoAttiva
}

// Riferimento renders the human identifier "numero" or "numero/suffisso"
func (p *Partita) Riferimento() string {
	ref := strconv.Itoa(p.NumeroPartita)
	if p.SuffissoPartita != "" {
		ref += "/" + p.SuffissoPartita
	}
	return ref
}

// IsValidPartitaTipo checks tipo against the fixed set
func IsValidPartitaTipo(tipo string) bool {
	return tipo == PartitaTipoPrincipale || tipo == PartitaTipoSecondaria
}

// PartitaPossessore links a possessore to a partita with its title and share.
// Removing the link never removes either endpoint.
type PartitaPossessore struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PartitaID    uint    `gorm:"not null;uniqueIndex:idx_partita_possessore,priority:1" json:"partita_id"`
	PossessoreID uint    `gorm:"not null;uniqueIndex:idx_partita_possessore,priority:2;index" json:"possessore_id"`
	TipoPartita  string  `gorm:"not null" json:"tipo_partita"`
	Titolo       string  `gorm:"not null" json:"titolo"`
	Quota        *string `json:"quota,omitempty"`

	Possessore *Possessore `gorm:"foreignKey:PossessoreID" json:"possessore,omitempty"`
}

// TableName specifies the table name for PartitaPossessore model
func (PartitaPossessore) TableName() string {
	return "partita_possessore"
}
