package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "season")
	assert.ErrorIs(t, err, ErrMiss)

	result := &simulation.Result{RunID: "run-1", Completed: 100}
	require.NoError(t, store.Set(ctx, "season", result, 0))

	got, err := store.Get(ctx, "season")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)

	require.NoError(t, store.Delete(ctx, "season"))
	_, err = store.Get(ctx, "season")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "season", &simulation.Result{RunID: "run-1"}, time.Minute))

	now = now.Add(30 * time.Second)
	_, err := store.Get(ctx, "season")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "season")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_Unreachable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := NewRedisStore(client, logger)

	_, err := store.Get(context.Background(), "season")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)

	err = store.Set(context.Background(), "season", &simulation.Result{RunID: "run-1"}, time.Minute)
	assert.Error(t, err)
}
