package main

import (
	"log"

	"legal-rag-be/internal/config"
	"legal-rag-be/internal/model"
	"legal-rag-be/pkg/database"

	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, gormlogger.Warn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Migrating legal_chunks...")
	if err := database.Migrate(db, &model.LegalChunk{}); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}
	log.Println("✅ Migration complete")
}
