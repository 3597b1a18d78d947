package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotCached is returned when no snapshot has been cached yet.
var ErrSnapshotNotCached = errors.New("no snapshot cached")

// RedisSnapshotCache holds the last backend snapshot in Redis so a fresh
// process can render the queue before the first fetch completes. Keys are
// namespaced per backend instance: slotline:{instance}:snapshot.
type RedisSnapshotCache struct {
	client   *redis.Client
	instance string
	ttl      time.Duration
}

// NewRedisSnapshotCache creates a new snapshot cache. A zero ttl stores
// snapshots without expiration.
func NewRedisSnapshotCache(client *redis.Client, instance string, ttl time.Duration) *RedisSnapshotCache {
	if instance == "" {
		instance = "default"
	}
	return &RedisSnapshotCache{
		client:   client,
		instance: instance,
		ttl:      ttl,
	}
}

func (c *RedisSnapshotCache) snapshotKey() string {
	return fmt.Sprintf("slotline:%s:snapshot", c.instance)
}

func (c *RedisSnapshotCache) sequenceKey() string {
	return fmt.Sprintf("slotline:%s:snapshot:seq", c.instance)
}

// Store caches a snapshot under the given sequence number. Older sequences
// are ignored so a late delivery cannot overwrite a newer snapshot.
func (c *RedisSnapshotCache) Store(ctx context.Context, events []*domain.ScheduledEvent, sequence uint64) error {
	current, err := c.client.Get(ctx, c.sequenceKey()).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if sequence != 0 && sequence <= current {
		return nil
	}

	dtos := make([]publisher.EventDTO, len(events))
	for i, event := range events {
		dtos[i] = publisher.EventDTO{
			ID:                event.RemoteID(),
			ProfileID:         event.ProfileID().String(),
			VideoPath:         event.MediaRef(),
			ScheduledTime:     event.ScheduledTime().UTC().Format(time.RFC3339),
			Status:            string(event.Status()),
			ViralMusicEnabled: event.ViralMusicEnabled(),
			MusicVolume:       event.MusicVolume(),
			ErrorMessage:      event.ErrorMessage(),
		}
	}

	payload, err := json.Marshal(dtos)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.snapshotKey(), payload, c.ttl)
	pipe.Set(ctx, c.sequenceKey(), strconv.FormatUint(sequence, 10), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Load returns the cached snapshot and its sequence number.
func (c *RedisSnapshotCache) Load(ctx context.Context) ([]*domain.ScheduledEvent, uint64, error) {
	payload, err := c.client.Get(ctx, c.snapshotKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrSnapshotNotCached
	}
	if err != nil {
		return nil, 0, err
	}

	sequence, err := c.client.Get(ctx, c.sequenceKey()).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	var dtos []publisher.EventDTO
	if err := json.Unmarshal(payload, &dtos); err != nil {
		return nil, 0, err
	}

	events := make([]*domain.ScheduledEvent, 0, len(dtos))
	for _, dto := range dtos {
		event, err := dto.ToDomain()
		if err != nil {
			continue
		}
		events = append(events, event)
	}

	return events, sequence, nil
}

// Invalidate drops the cached snapshot.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.snapshotKey(), c.sequenceKey()).Err()
}
