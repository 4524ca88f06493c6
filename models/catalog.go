package models

import "time"

// Catalog keys
const (
	CatalogKeyTipoDocumento  = "tipo_documento"
	CatalogKeyTitoloPossesso = "titolo_possesso"
	CatalogKeyTipoVariazione = "tipo_variazione"
)

// CatalogCategory is a configurable reference list (document types, titles, event kinds)
type CatalogCategory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Key       string `gorm:"not null;uniqueIndex:idx_catalog_key" json:"key"` // e.g., "tipo_documento"
	Name      string `gorm:"not null" json:"name"`                            // Human-readable name
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
	IsSystem  bool   `gorm:"not null;default:false" json:"is_system"` // Prevents deletion of system categories

	Options []CatalogOption `gorm:"foreignKey:CategoryID" json:"options,omitempty"`
}

// TableName specifies the table name for CatalogCategory model
func (CatalogCategory) TableName() string {
	return "catalog_categories"
}

// CatalogOption is one value of a catalog
type CatalogOption struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CategoryID uint   `gorm:"not null;uniqueIndex:idx_catalog_opt_code,priority:1;index:idx_catalog_opt_order" json:"category_id"`
	Code       string `gorm:"not null;uniqueIndex:idx_catalog_opt_code,priority:2" json:"code"` // Stored value, e.g., "Vendita"
	Label      string `gorm:"not null" json:"label"`                                            // Display text
	SortOrder  int    `gorm:"not null;default:0;index:idx_catalog_opt_order" json:"sort_order"`
	IsActive   bool   `gorm:"not null;default:true" json:"is_active"`
	IsSystem   bool   `gorm:"not null;default:false" json:"is_system"`
}

// TableName specifies the table name for CatalogOption model
func (CatalogOption) TableName() string {
	return "catalog_options"
}
