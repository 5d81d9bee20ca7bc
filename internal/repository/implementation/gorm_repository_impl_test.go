package implementation

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/model"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDB(database.GormConfig{Connection: dsn})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&model.KnowledgeDocument{}, &model.Lead{}))
	return db
}

func unitVector(hot int) []float32 {
	v := make([]float32, 768)
	v[hot] = 1
	return v
}

func TestKnowledgeDocumentRepository_SearchSimilar(t *testing.T) {
	db := openTestDB(t)
	repo := NewKnowledgeDocumentRepository(db)
	ctx := context.Background()

	marker := uuid.NewString()
	now := time.Now().UTC()
	docs := []*entity.KnowledgeDocument{
		{Title: "Pricing " + marker, Content: "Plans start at $49 " + marker, SourceType: "official_docs", LastUpdated: &now, Embedding: unitVector(0)},
		{Title: "Blog " + marker, Content: "How we build React apps " + marker, SourceType: "blog_post", Embedding: unitVector(1)},
	}
	require.NoError(t, repo.CreateBulk(ctx, docs))
	t.Cleanup(func() {
		db.Where("content LIKE ?", "%"+marker).Delete(&model.KnowledgeDocument{})
	})

	results, err := repo.SearchSimilar(ctx, unitVector(0), 5, specification.ContentMatchesAny{Keywords: []string{marker}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "official_docs", results[0].Document.SourceType)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-4)

	filtered, err := repo.SearchSimilar(ctx, unitVector(0), 5,
		specification.ContentMatchesAny{Keywords: []string{"react apps " + marker}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "blog_post", filtered[0].Document.SourceType)
}

func TestLeadRepository_FindRecentByEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewLeadRepository(db)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	lead := &entity.Lead{SessionId: "s1", Email: email, Name: "Jane Doe", Topics: []string{"pricing"}}
	require.NoError(t, repo.Create(ctx, lead))
	t.Cleanup(func() { db.Where("email = ?", email).Delete(&model.Lead{}) })
	assert.NotEqual(t, uuid.Nil, lead.Id)

	found, err := repo.FindOne(ctx,
		specification.ByEmail{Email: "  " + email},
		specification.CreatedAfter{At: time.Now().Add(-time.Hour)},
	)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"pricing"}, found.Topics)

	none, err := repo.FindOne(ctx, specification.ByEmail{Email: "nobody-" + email})
	require.NoError(t, err)
	assert.Nil(t, none)
}
