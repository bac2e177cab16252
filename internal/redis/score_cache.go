package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alex010501/TasksTracking/internal/domain"
)

// scoreTTL keeps cached aggregates short-lived: a stale score survives at
// most one TTL past the mutation that invalidated it, which reporting
// callers tolerate.
const scoreTTL = 5 * time.Minute

// ErrCacheMiss is returned when the requested key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ScoreCache holds computed score aggregates so repeated reporting queries
// skip the task scan.
type ScoreCache interface {
	GetScore(ctx context.Context, key string) (int, error)
	SetScore(ctx context.Context, key string, score int) error
	GetRanking(ctx context.Context, key string) ([]domain.EmployeeScore, error)
	SetRanking(ctx context.Context, key string, ranking []domain.EmployeeScore) error
}

type scoreCache struct {
	client *redis.Client
}

// NewScoreCache creates a Redis-backed ScoreCache.
func NewScoreCache(client *redis.Client) ScoreCache {
	return &scoreCache{client: client}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

// ScoreKey builds the cache key for a scope ("employee", "project",
// "department", "top") and window. id is ignored for department-wide scopes.
func ScoreKey(scope string, id int64, w domain.Window) string {
	from, to := "-", "-"
	if w.From != nil {
		from = w.From.Format("2006-01-02")
	}
	if w.To != nil {
		to = w.To.Format("2006-01-02")
	}
	if id > 0 {
		return fmt.Sprintf("score:%s:%d:%s:%s", scope, id, from, to)
	}
	return fmt.Sprintf("score:%s:%s:%s", scope, from, to)
}

func (c *scoreCache) GetScore(ctx context.Context, key string) (int, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("redis get score %s: %w", key, err)
	}
	score, err := strconv.Atoi(val)
	if err != nil {
		// Somebody wrote junk under our key; treat it as a miss.
		return 0, ErrCacheMiss
	}
	return score, nil
}

func (c *scoreCache) SetScore(ctx context.Context, key string, score int) error {
	if err := c.client.Set(ctx, key, strconv.Itoa(score), scoreTTL).Err(); err != nil {
		return fmt.Errorf("redis set score %s: %w", key, err)
	}
	return nil
}

func (c *scoreCache) GetRanking(ctx context.Context, key string) ([]domain.EmployeeScore, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get ranking %s: %w", key, err)
	}
	var ranking []domain.EmployeeScore
	if err := json.Unmarshal(data, &ranking); err != nil {
		return nil, ErrCacheMiss
	}
	return ranking, nil
}

func (c *scoreCache) SetRanking(ctx context.Context, key string, ranking []domain.EmployeeScore) error {
	data, err := json.Marshal(ranking)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}
	if err := c.client.Set(ctx, key, data, scoreTTL).Err(); err != nil {
		return fmt.Errorf("redis set ranking %s: %w", key, err)
	}
	return nil
}
