package models

import "gorm.io/gorm"

func All() []any {
	return []any{
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&User{},
		&UserRole{},
		&RefreshToken{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
