package migration

import (
	"fmt"
	"log"

	"github.com/Lokhmat/ocr-backend/entities"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Image{}); err != nil {
		log.Fatalf("Error migrating image database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.APIToken{}); err != nil {
		log.Fatalf("Error migrating api token database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
