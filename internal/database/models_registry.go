package database

import "atelier/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.SiteState{},
		&models.ProductSubmission{},
		&models.ProductLike{},
		&models.ProductComment{},
		&models.CartItem{},
	}
}
