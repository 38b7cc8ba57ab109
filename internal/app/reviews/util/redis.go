package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const ratingSummaryKeyPrefix = "rating_summary"

// RatingCacheClient кеширует сводки рейтинга постов в Redis.
// Обновляется после каждого успешного коммита оценки, поэтому горячие
// посты читаются без похода в документное хранилище.
type RatingCacheClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatingCacheClient(addr, password string, db int, ttl time.Duration) (*RatingCacheClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RatingCacheClient{client: client, ttl: ttl}, nil
}

// NewRatingCacheClientWithRedis оборачивает готовый клиент (для тестов)
func NewRatingCacheClientWithRedis(client *redis.Client, ttl time.Duration) *RatingCacheClient {
	return &RatingCacheClient{client: client, ttl: ttl}
}

func ratingSummaryKey(postID string) string {
	return ratingSummaryKeyPrefix + ":" + postID
}

// GetSummary читает сводку рейтинга из кеша; (nil, nil) при промахе
func (r *RatingCacheClient) GetSummary(ctx context.Context, postID string) (*entity.RatingSummary, error) {
	data, err := r.client.Get(ctx, ratingSummaryKey(postID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss("reviews-service", ratingSummaryKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError("reviews-service", "get")
		return nil, fmt.Errorf("failed to get rating summary from cache: %w", err)
	}

	var summary entity.RatingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rating summary: %w", err)
	}

	metrics.RecordCacheHit("reviews-service", ratingSummaryKeyPrefix)
	return &summary, nil
}

// SetSummary сохраняет сводку рейтинга с TTL
func (r *RatingCacheClient) SetSummary(ctx context.Context, postID string, summary *entity.RatingSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal rating summary: %w", err)
	}

	if err := r.client.Set(ctx, ratingSummaryKey(postID), data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError("reviews-service", "set")
		return fmt.Errorf("failed to set rating summary in cache: %w", err)
	}

	return nil
}

// DeleteSummary удаляет сводку рейтинга (при удалении поста)
func (r *RatingCacheClient) DeleteSummary(ctx context.Context, postID string) error {
	if err := r.client.Del(ctx, ratingSummaryKey(postID)).Err(); err != nil {
		metrics.RecordRedisError("reviews-service", "del")
		return fmt.Errorf("failed to delete rating summary from cache: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RatingCacheClient) Close() error {
	return r.client.Close()
}
