package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spacerover/backend/services/telemetry-service/internal/models"
)

// Store caches the most recent reading per rover for cheap dashboard reads.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(roverID string) string {
	return fmt.Sprintf("telemetry:latest:%s", roverID)
}

// Save caches a reading as the rover's latest.
func (s *Store) Save(ctx context.Context, reading models.TelemetryReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(reading.RoverID), data, s.ttl).Err()
}

// Get returns the cached latest reading, redis.Nil when absent.
func (s *Store) Get(ctx context.Context, roverID string) (*models.TelemetryReading, error) {
	result, err := s.client.Get(ctx, s.key(roverID)).Result()
	if err != nil {
		return nil, err
	}
	var reading models.TelemetryReading
	if err := json.Unmarshal([]byte(result), &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}
