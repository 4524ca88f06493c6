package services

import (
	"catasto_app_go/logger"
	"catasto_app_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetCatalogOptions fetches active options of a catalog ordered for display
func GetCatalogOptions(db *gorm.DB, categoryKey string) ([]models.CatalogOption, error) {
	var options []models.CatalogOption

	err := db.
		Joins("JOIN catalog_categories ON catalog_categories.id = catalog_options.category_id").
		Where("catalog_categories.key = ?", categoryKey).
		Where("catalog_categories.is_active = ?", true).
		Where("catalog_options.is_active = ?", true).
		Order("catalog_options.sort_order ASC").
		Find(&options).Error

	return options, err
}

// GetCatalogOptionByCode fetches a specific option by catalog key and code
func GetCatalogOptionByCode(db *gorm.DB, categoryKey string, code string) (*models.CatalogOption, error) {
	var option models.CatalogOption

	err := db.
		Joins("JOIN catalog_categories ON catalog_categories.id = catalog_options.category_id").
		Where("catalog_categories.key = ?", categoryKey).
		Where("catalog_options.code = ?", code).
		First(&option).Error
	if err != nil {
		return nil, translateDBError(err, "catalog_option", categoryKey+"/"+code)
	}
	return &option, nil
}

// ValidateCatalogOption reports whether code is an active option of the catalog
func ValidateCatalogOption(db *gorm.DB, categoryKey string, code string) bool {
	var count int64

	db.Model(&models.CatalogOption{}).
		Joins("JOIN catalog_categories ON catalog_categories.id = catalog_options.category_id").
		Where("catalog_categories.key = ?", categoryKey).
		Where("catalog_categories.is_active = ?", true).
		Where("catalog_options.code = ?", code).
		Where("catalog_options.is_active = ?", true).
		Count(&count)

	return count > 0
}

// requireCatalogOption fails with ValidationError for codes outside the catalog
func requireCatalogOption(tx *gorm.DB, categoryKey, field, code string) error {
	if !ValidateCatalogOption(tx, categoryKey, code) {
		return validationError("%s %q is not in catalog %s", field, code, categoryKey)
	}
	return nil
}

type catalogSeed struct {
	key     string
	name    string
	order   int
	options []string
}

var defaultCatalogs = []catalogSeed{
	{
		key:   models.CatalogKeyTipoVariazione,
		name:  "Tipo variazione",
		order: 1,
		options: []string{
			models.VariazioneVendita,
			models.VariazioneSuccessione,
			models.VariazioneFrazionamento,
			models.VariazioneTrasferimento,
			"Donazione",
			"Permuta",
			"Divisione",
			"Correzione",
		},
	},
	{
		key:   models.CatalogKeyTipoDocumento,
		name:  "Tipo documento",
		order: 2,
		options: []string{
			"Atto notarile",
			"Denuncia di successione",
			"Mappa catastale",
			"Registro partite",
			"Certificato",
			"Altro",
		},
	},
	{
		key:   models.CatalogKeyTitoloPossesso,
		name:  "Titolo di possesso",
		order: 3,
		options: []string{
			"proprietà esclusiva",
			"comproprietà",
			"nuda proprietà",
			"usufrutto",
			"enfiteusi",
			"livello",
		},
	},
}

// SeedDefaultCatalogs creates the system catalogs that are missing
func SeedDefaultCatalogs(db *gorm.DB) error {
	for _, seed := range defaultCatalogs {
		if err := seedCatalog(db, seed); err != nil {
			logger.Log.Error("Error seeding catalog", zap.String("key", seed.key), zap.Error(err))
			return err
		}
	}
	return nil
}

func seedCatalog(db *gorm.DB, seed catalogSeed) error {
	// Check if already exists
	var existing models.CatalogCategory
	if err := db.Where("key = ?", seed.key).First(&existing).Error; err == nil {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		category := models.CatalogCategory{
			Key:       seed.key,
			Name:      seed.name,
			SortOrder: seed.order,
			IsActive:  true,
			IsSystem:  true,
		}
		if err := tx.Create(&category).Error; err != nil {
			return err
		}

		for i, code := range seed.options {
			option := models.CatalogOption{
				CategoryID: category.ID,
				Code:       code,
				Label:      code,
				SortOrder:  i + 1,
				IsActive:   true,
				IsSystem:   true,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
