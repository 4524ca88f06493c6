package models

import "time"

// Possessore is a recorded owner. ComuneRiferimentoID is a reference only.
type Possessore struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ComuneRiferimentoID uint    `gorm:"not null;index" json:"comune_riferimento_id"`
	NomeCompleto        string  `gorm:"not null;index" json:"nome_completo"`
	CognomeNome         *string `json:"cognome_nome,omitempty"`
	Paternita           *string `json:"paternita,omitempty"`
	Attivo              bool    `gorm:"not null" json:"attivo"`
}

// TableName specifies the table name for Possessore model
func (Possessore) TableName() string {
	return "possessori"
}
