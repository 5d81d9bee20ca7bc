package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sales-assistant-be/internal/bootstrap"
	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/repository/implementation"
	"sales-assistant-be/pkg/database"
	"sales-assistant-be/pkg/utils"

	"github.com/fatih/color"
)

// seedDocument is one entry of the seed file.
type seedDocument struct {
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Source      string                 `json:"source"`
	SourceType  string                 `json:"sourceType"`
	LastUpdated string                 `json:"lastUpdated"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func main() {
	file := flag.String("file", "data/knowledge.json", "JSON array of knowledge documents")
	chunkSize := flag.Int("chunk-size", 1500, "maximum characters per stored chunk")
	overlap := flag.Int("chunk-overlap", 150, "characters shared by consecutive chunks")
	flag.Parse()

	cfg := config.Load()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Error: read %s: %v", *file, err)
	}
	var seeds []seedDocument
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.Fatalf("Error: parse %s: %v", *file, err)
	}

	db, err := database.NewGormDB(cfg.Database.Gorm())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	repo := implementation.NewKnowledgeDocumentRepository(db)
	embedder := bootstrap.NewEmbeddingProvider(cfg.Ai)

	ctx := context.Background()
	docs := make([]*entity.KnowledgeDocument, 0, len(seeds))
	for i, s := range seeds {
		if s.Content == "" {
			color.Yellow("[%d/%d] skipped %q: empty content", i+1, len(seeds), s.Title)
			continue
		}
		chunks := utils.SplitText(s.Content, *chunkSize, *overlap)
		for n, chunk := range chunks {
			title := s.Title
			if len(chunks) > 1 {
				title = fmt.Sprintf("%s (part %d/%d)", s.Title, n+1, len(chunks))
			}
			vec, err := embedder.Embed(ctx, title+"\n"+chunk)
			if err != nil {
				color.Red("[%d/%d] embedding failed for %q: %v", i+1, len(seeds), title, err)
				continue
			}
			doc := &entity.KnowledgeDocument{
				Title:      title,
				Content:    chunk,
				Source:     s.Source,
				SourceType: s.SourceType,
				Metadata:   s.Metadata,
				Embedding:  vec,
			}
			if ts, ok := parseDate(s.LastUpdated); ok {
				doc.LastUpdated = &ts
			}
			docs = append(docs, doc)
		}
		fmt.Printf("%s %s (%d chunks)\n", color.GreenString("[%d/%d] embedded", i+1, len(seeds)), s.Title, len(chunks))
	}

	if len(docs) == 0 {
		color.Yellow("Nothing to insert.")
		return
	}
	if err := repo.CreateBulk(ctx, docs); err != nil {
		color.Red("Insert failed: %v", err)
		os.Exit(1)
	}
	color.Green("Seeded %d chunks from %d documents.", len(docs), len(seeds))
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
