//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex010501/TasksTracking/internal/domain"
	redisstore "github.com/alex010501/TasksTracking/internal/redis"
)

// newRedisClient returns a client connected to the test container and flushes
// the database on test cleanup so tests don't interfere with each other.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	t.Cleanup(func() {
		client.FlushDB(context.Background()) //nolint:errcheck
		client.Close()                       //nolint:errcheck
	})
	return client
}

func TestScoreCache_SetGetScore_RoundTrip(t *testing.T) {
	cache := redisstore.NewScoreCache(newRedisClient(t))
	ctx := context.Background()

	from := date("2024-01-01")
	to := date("2024-01-31")
	key := redisstore.ScoreKey("employee", 7, domain.Window{From: &from, To: &to})

	require.NoError(t, cache.SetScore(ctx, key, 42))

	got, err := cache.GetScore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestScoreCache_GetScore_Miss(t *testing.T) {
	cache := redisstore.NewScoreCache(newRedisClient(t))

	_, err := cache.GetScore(context.Background(), "score:employee:404:-:-")
	require.ErrorIs(t, err, redisstore.ErrCacheMiss)
}

func TestScoreCache_Ranking_RoundTrip(t *testing.T) {
	cache := redisstore.NewScoreCache(newRedisClient(t))
	ctx := context.Background()

	ranking := []domain.EmployeeScore{
		{EmployeeID: 1, Name: "Anna", Score: 10},
		{EmployeeID: 2, Name: "Boris", Score: 7},
	}
	require.NoError(t, cache.SetRanking(ctx, "score:top:5:-:-", ranking))

	got, err := cache.GetRanking(ctx, "score:top:5:-:-")
	require.NoError(t, err)
	assert.Equal(t, ranking, got)
}

// ── Leader lock ──────────────────────────────────────────────────────────────

func TestLock_MutualExclusion(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	first := redisstore.NewLock(client, "test:leader", "holder-1", 30*time.Second)
	second := redisstore.NewLock(client, "test:leader", "holder-2", 30*time.Second)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "first acquire should win")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire a held lock")

	// The holder itself can re-acquire (renewal).
	ok, err = first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock is free after release")
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	owner := redisstore.NewLock(client, "test:owned", "holder-1", 30*time.Second)
	thief := redisstore.NewLock(client, "test:owned", "holder-2", 30*time.Second)

	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing someone else's lock is a silent no-op.
	require.NoError(t, thief.Release(ctx))

	ok, err = thief.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "lock must still be held by the owner")
}

// ── Rate limiter ─────────────────────────────────────────────────────────────

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 5, time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "within-limit")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "over-limit")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "over-limit")
	require.NoError(t, err)
	assert.False(t, ok, "4th request should be rate-limited")
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	// Use a short window so the test doesn't take too long.
	window := 200 * time.Millisecond
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 2, window)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "expiry-key")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "expiry-key")
	require.NoError(t, err)
	assert.False(t, ok, "should be blocked within window")

	// After the window expires, the limit resets.
	time.Sleep(window + 50*time.Millisecond)

	ok, err = limiter.Allow(ctx, "expiry-key")
	require.NoError(t, err)
	assert.True(t, ok, "should be allowed after window expires")
}
