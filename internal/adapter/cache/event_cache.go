package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/ports"
	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

// EventCache is a read-through cache in front of an EventRepository. Events
// never change after creation, so entries only ever expire.
type EventCache struct {
	next  ports.EventRepository
	redis *redis.Client
	ttl   time.Duration
}

func NewEventCache(next ports.EventRepository, redisClient *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{next: next, redis: redisClient, ttl: ttl}
}

type cachedEvent struct {
	ID                     string    `json:"id"`
	Organizer              uuid.UUID `json:"organizer"`
	Fee                    int64     `json:"fee"`
	StartTime              int64     `json:"start_time"`
	CancellationWindowDays int       `json:"cancellation_window_days"`
	AttendanceSecretHash   string    `json:"attendance_secret_hash"`
	CreatedAt              int64     `json:"created_at"`
}

func eventKey(id domain.EventID) string {
	return fmt.Sprintf("event:%s", id)
}

func (c *EventCache) Create(ctx context.Context, event *domain.Event) error {
	return c.next.Create(ctx, event)
}

func (c *EventCache) ListIDs(ctx context.Context) ([]domain.EventID, error) {
	return c.next.ListIDs(ctx)
}

func (c *EventCache) GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	key := eventKey(id)

	payload, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		event, decodeErr := decodeEvent(payload)
		if decodeErr == nil {
			return event, nil
		}
		logging.FromContext(ctx).WithError(decodeErr).WithField("key", key).Warn("Dropping unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("Event cache unavailable")
	}

	event, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeEvent(event)
	if err != nil {
		return event, nil
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("Failed to populate event cache")
	}

	return event, nil
}

func encodeEvent(e *domain.Event) ([]byte, error) {
	return json.Marshal(cachedEvent{
		ID:                     string(e.ID),
		Organizer:              e.Organizer,
		Fee:                    e.Fee,
		StartTime:              e.StartTime.Unix(),
		CancellationWindowDays: e.CancellationWindowDays,
		AttendanceSecretHash:   e.AttendanceSecretHash.String(),
		CreatedAt:              e.CreatedAt.Unix(),
	})
}

func decodeEvent(payload []byte) (*domain.Event, error) {
	var c cachedEvent
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, err
	}

	hash, err := domain.ParseSecretHash(c.AttendanceSecretHash)
	if err != nil {
		return nil, err
	}

	return &domain.Event{
		ID:                     domain.EventID(c.ID),
		Organizer:              c.Organizer,
		Fee:                    c.Fee,
		StartTime:              time.Unix(c.StartTime, 0).UTC(),
		CancellationWindowDays: c.CancellationWindowDays,
		AttendanceSecretHash:   hash,
		CreatedAt:              time.Unix(c.CreatedAt, 0).UTC(),
	}, nil
}
