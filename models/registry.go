package models

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&Comune{},
		&Sezione{},
		&Localita{},
		&Possessore{},
		&Partita{},
		&PartitaPossessore{},
		&Immobile{},
		&Variazione{},
		&Documento{},
		&DocumentoPartita{},
		&Consultazione{},
		&CatalogCategory{},
		&CatalogOption{},
		&AuditLog{},
	}
}
