package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"galabook/src/bookings"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availabilityKey      = "availability"
	AvailabilityCacheTTL = 15 * time.Second
	webhookEventTTL      = 24 * time.Hour
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// RedisAvailabilityCache keeps a short-lived copy of pool availability for
// read traffic. Booking decisions never read it.
type RedisAvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailabilityCache(rdb *redis.Client) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{rdb: rdb, ttl: AvailabilityCacheTTL}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context) (*bookings.Availability, error) {
	val, err := c.rdb.Get(ctx, availabilityKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a bookings.Availability
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, a bookings.Availability) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, availabilityKey, string(b), c.ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, availabilityKey).Err()
}

func webhookEventKey(id string) string {
	return fmt.Sprintf("webhook:stripe:%s", id)
}

// WebhookEventProcessed reports whether a gateway event id was already
// handled. A nil client means no dedupe.
func WebhookEventProcessed(ctx context.Context, rdb *redis.Client, id string) bool {
	if rdb == nil || id == "" {
		return false
	}
	n, err := rdb.Exists(ctx, webhookEventKey(id)).Result()
	if err != nil {
		log.Printf("[redis] Error checking webhook event %s: %s\n", id, err.Error())
		return false
	}
	return n > 0
}

func MarkWebhookEventProcessed(ctx context.Context, rdb *redis.Client, id string) {
	if rdb == nil || id == "" {
		return
	}
	if err := rdb.Set(ctx, webhookEventKey(id), time.Now().UTC().Format(time.RFC3339), webhookEventTTL).Err(); err != nil {
		log.Printf("[redis] Error marking webhook event %s: %s\n", id, err.Error())
	}
}
