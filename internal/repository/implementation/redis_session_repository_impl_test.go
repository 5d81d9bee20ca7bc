package implementation

import (
	"context"
	"os"
	"testing"
	"time"

	"sales-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx := context.Background()
	repo := NewRedisSessionRepository(rdb, time.Minute)
	id := uuid.NewString()

	s := store.NewSession(id, time.Now().UTC())
	s.AppendTurn(store.RoleUser, "what does it cost?")
	s.AddTopics("pricing")
	require.NoError(t, repo.SetWithTTL(ctx, s, 5*time.Second))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"pricing"}, got.TopicsDiscussed)

	ttl := rdb.TTL(ctx, sessionKey(id)).Val()
	assert.Greater(t, ttl, 5*time.Second, "Get refreshes the TTL")

	require.NoError(t, repo.Delete(ctx, id))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
