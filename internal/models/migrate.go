package models

import "gorm.io/gorm"

// AutoMigrate creates/updates the schema for every entity.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&ProviderProfile{},
		&Service{},
		&Request{},
		&Response{},
	)
}
