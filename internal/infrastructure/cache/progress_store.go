package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/config"
)

const defaultProgressKeyPrefix = "gangsheet:progress:"

// RedisProgressStore implements ProgressStore using Redis.
// This is suitable for distributed deployments where the API instances that
// serve status polls are not the worker instances that run the jobs.
type RedisProgressStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisProgressStore creates a new Redis-backed progress store.
// Entries expire after ttl so abandoned jobs do not accumulate.
func NewRedisProgressStore(cfg *config.RedisConfig, ttl time.Duration) (*RedisProgressStore, error) {
	if cfg == nil {
		return nil, errors.New("redis configuration is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProgressStore{
		client:    client,
		keyPrefix: defaultProgressKeyPrefix,
		ttl:       ttl,
	}, nil
}

// NewRedisProgressStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisProgressStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisProgressStore {
	if keyPrefix == "" {
		keyPrefix = defaultProgressKeyPrefix
	}
	return &RedisProgressStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisProgressStore) progressKey(jobID uuid.UUID) string {
	return s.keyPrefix + jobID.String()
}

func (s *RedisProgressStore) cancelKey(jobID uuid.UUID) string {
	return s.keyPrefix + "cancel:" + jobID.String()
}

// SetProgress overwrites the progress snapshot for a job and refreshes its TTL.
func (s *RedisProgressStore) SetProgress(ctx context.Context, jobID uuid.UUID, progress gangsheetapp.JobProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if err := s.client.Set(ctx, s.progressKey(jobID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	return nil
}

// GetProgress returns the live snapshot for a job.
func (s *RedisProgressStore) GetProgress(ctx context.Context, jobID uuid.UUID) (*gangsheetapp.JobProgress, error) {
	payload, err := s.client.Get(ctx, s.progressKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	var progress gangsheetapp.JobProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	return &progress, nil
}

// RequestCancel flags the job for cancellation.
// Uses SETNX so concurrent cancel requests resolve to a single winner.
func (s *RedisProgressStore) RequestCancel(ctx context.Context, jobID uuid.UUID) (bool, error) {
	set, err := s.client.SetNX(ctx, s.cancelKey(jobID), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to flag cancellation: %w", err)
	}
	return set, nil
}

// IsCancelRequested reports whether cancellation has been requested for the job.
func (s *RedisProgressStore) IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	exists, err := s.client.Exists(ctx, s.cancelKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cancellation flag: %w", err)
	}
	return exists > 0, nil
}

// Clear removes the progress snapshot and cancel flag for a job.
func (s *RedisProgressStore) Clear(ctx context.Context, jobID uuid.UUID) error {
	if err := s.client.Del(ctx, s.progressKey(jobID), s.cancelKey(jobID)).Err(); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisProgressStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring).
func (s *RedisProgressStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisProgressStore implements ProgressStore
var _ gangsheetapp.ProgressStore = (*RedisProgressStore)(nil)
