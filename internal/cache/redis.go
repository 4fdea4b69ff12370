package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"ticketnow/internal/models"

	"github.com/redis/go-redis/v9"
)

const eventsVersionKey = "events:list:version"

type Config struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	EventsTTL time.Duration
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// EventCache caches public event listings. Entries are keyed by a version
// number that every event mutation bumps, so stale pages are never read
// after a change and simply expire.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventCache(client *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{client: client, ttl: ttl}
}

// GetEvents returns the cached listing and whether it was found. The key
// is returned even on a miss and must be passed to SetEvents, so a listing
// read before an Invalidate is never stored under the newer version. An
// empty key means the version could not be read and nothing should be stored.
func (c *EventCache) GetEvents(ctx context.Context, filter models.EventFilter, approved bool) ([]models.Event, string, bool) {
	key, err := c.listKey(ctx, filter, approved)
	if err != nil {
		slog.Warn("Events cache version lookup failed", "error", err)
		return nil, "", false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Events cache lookup failed", "key", key, "error", err)
		}
		return nil, key, false
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		slog.Warn("Events cache entry is corrupt", "key", key, "error", err)
		return nil, key, false
	}
	return events, key, true
}

func (c *EventCache) SetEvents(ctx context.Context, key string, events []models.Event) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(events)
	if err != nil {
		slog.Warn("Failed to encode events for cache", "error", err)
		return
	}

	if err := c.client.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		slog.Warn("Failed to store events in cache", "key", key, "error", err)
	}
}

// Invalidate makes every cached listing unreachable
func (c *EventCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, eventsVersionKey).Err(); err != nil {
		slog.Warn("Failed to invalidate events cache", "error", err)
	}
}

func (c *EventCache) listKey(ctx context.Context, filter models.EventFilter, approved bool) (string, error) {
	version := int64(0)
	raw, err := c.client.Get(ctx, eventsVersionKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return "", err
	default:
		if version, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return "", fmt.Errorf("invalid events cache version %q: %w", raw, err)
		}
	}

	// free-text fields are escaped so no two filters share a key
	params := url.Values{
		"page":     {strconv.Itoa(filter.Page)},
		"size":     {strconv.Itoa(filter.PageSize)},
		"name":     {filter.Name},
		"city":     {filter.City},
		"category": {string(filter.Category)},
	}
	return fmt.Sprintf("events:list:v%d:%t:%s", version, approved, params.Encode()), nil
}
