package main

import (
	"log"

	"github.com/Lokhmat/ocr-backend/cmd/config"
	migration "github.com/Lokhmat/ocr-backend/cmd/database/migrate"
	"github.com/Lokhmat/ocr-backend/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed connecting to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed migrating database: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed setting up app: %v", err)
	}

	if err := app.Listen(":" + utils.GetConfig("APP_PORT")); err != nil {
		log.Fatalf("failed starting server: %v", err)
	}
}
