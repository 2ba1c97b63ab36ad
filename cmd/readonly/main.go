package main

import (
	"log"

	"github.com/Lokhmat/ocr-backend/cmd/config"
	"github.com/Lokhmat/ocr-backend/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed connecting to database: %v", err)
	}

	app, err := config.NewReadonlyApp(db)
	if err != nil {
		log.Fatalf("failed setting up readonly app: %v", err)
	}

	if err := app.Listen(":" + utils.GetConfig("READONLY_PORT")); err != nil {
		log.Fatalf("failed starting server: %v", err)
	}
}
