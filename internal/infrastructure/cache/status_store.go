package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainerrors "github.com/caldermont/data-governance-backend/internal/domain/errors"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/config"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

const statusKeyPrefix = "datagov:analysis_status:"

// RedisStatusStore keeps run-status snapshots in Redis so the polling
// surface works across API instances. Entries expire after the configured
// TTL; a finished run's status does not live forever.
type RedisStatusStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisStatusStore connects to Redis and verifies the connection
func NewRedisStatusStore(cfg *config.RedisConfig, logger *zap.Logger) (*RedisStatusStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ttl := cfg.StatusTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStatusStore{client: client, logger: logger, ttl: ttl}, nil
}

// NewRedisStatusStoreWithClient wraps an existing client (used by tests)
func NewRedisStatusStoreWithClient(client *redis.Client, logger *zap.Logger, ttl time.Duration) *RedisStatusStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStatusStore{client: client, logger: logger, ttl: ttl}
}

// Set stores the status snapshot under the analysis id
func (s *RedisStatusStore) Set(ctx context.Context, status *gapanalysis.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling status: %w", err)
	}
	if err := s.client.Set(ctx, statusKeyPrefix+status.AnalysisID.String(), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing status: %w", err)
	}
	return nil
}

// Get returns the latest status snapshot, or a typed not-found error
func (s *RedisStatusStore) Get(ctx context.Context, analysisID uuid.UUID) (*gapanalysis.Status, error) {
	payload, err := s.client.Get(ctx, statusKeyPrefix+analysisID.String()).Bytes()
	if err == redis.Nil {
		return nil, domainerrors.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading status: %w", err)
	}

	var status gapanalysis.Status
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("unmarshaling status: %w", err)
	}
	return &status, nil
}

// Close releases the underlying client
func (s *RedisStatusStore) Close() error {
	return s.client.Close()
}
