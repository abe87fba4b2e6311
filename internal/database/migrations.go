package database

import (
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Portfolio{},
		&models.Gallery{},
		&models.GalleryItem{},
		&models.CommissionPrice{},
		&models.Commission{},
		&models.Link{},
		&models.CacheEntry{},
	)
}
