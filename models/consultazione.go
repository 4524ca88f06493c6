package models

import "time"

// Consultazione records one reading-room consultation of archive material
type Consultazione struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DataConsultazione       time.Time `gorm:"type:date;not null;index" json:"data_consultazione"`
	Richiedente             string    `gorm:"not null;index" json:"richiedente"`
	DocumentoIdentita       *string   `json:"documento_identita,omitempty"`
	Motivazione             *string   `gorm:"type:text" json:"motivazione,omitempty"`
	MaterialeConsultato     string    `gorm:"type:text;not null" json:"materiale_consultato"`
	FunzionarioAutorizzante *string   `json:"funzionario_autorizzante,omitempty"`
}

// TableName specifies the table name for Consultazione model
func (Consultazione) TableName() string {
	return "consultazioni"
}
