package model

import (
	"gorm.io/gorm"
)

// Tables every store needs, in migration order
var Tables = []string{"User", "Note"}

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Note":
		return db.AutoMigrate(Note{})

	case "User":
		return db.AutoMigrate(User{})
	}
	return nil
}

// AutoMigrateAll migrates every table in Tables
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range Tables {
		if err := AutoMigrate(db, key); err != nil {
			return err
		}
	}
	return nil
}
