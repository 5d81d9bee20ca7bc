package main

import (
	"log"

	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/model"
	"sales-assistant-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Gorm())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: %v. Continuing...", err)
		}
	}

	color.Cyan("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.KnowledgeDocument{},
		&model.Lead{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("AutoMigrate failed: %v", err)
		log.Fatal(err)
	}

	color.Cyan("Step 3: Creating vector index...")
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_knowledge_documents_embedding
		ON knowledge_documents USING hnsw (embedding vector_cosine_ops);`).Error; err != nil {
		color.Yellow("Warn: vector index not created: %v", err)
	}

	color.Green("Migration complete.")
}
