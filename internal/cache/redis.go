package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/barberbooking/config"
	"github.com/Domenick1991/barberbooking/internal/domain"
)

// RedisCache stores open slots per resource and day and holds the short
// resource/day locks taken while a reschedule commits.
type RedisCache struct {
	client  *redis.Client
	slotTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, slotTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		slotTTL: slotTTL,
	}
}

type cachedSlot struct {
	Ref   string    `json:"ref"`
	Start time.Time `json:"start"`
}

// GetSlots reports ok=false on a cache miss.
func (c *RedisCache) GetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration) ([]domain.Slot, bool, error) {
	data, err := c.client.HGet(ctx, slotsKey(resourceID, day), durationField(duration)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var raw []cachedSlot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	slots := make([]domain.Slot, 0, len(raw))
	for _, s := range raw {
		slots = append(slots, domain.Slot{ResourceRef: s.Ref, Start: s.Start, Duration: duration})
	}
	return slots, true, nil
}

func (c *RedisCache) SetSlots(ctx context.Context, resourceID int64, day string, duration time.Duration, slots []domain.Slot) error {
	raw := make([]cachedSlot, 0, len(slots))
	for _, s := range slots {
		raw = append(raw, cachedSlot{Ref: s.ResourceRef, Start: s.Start})
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	key := slotsKey(resourceID, day)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, durationField(duration), payload)
	pipe.Expire(ctx, key, c.slotTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateDay drops the cached slots of every duration for one resource/day.
func (c *RedisCache) InvalidateDay(ctx context.Context, resourceID int64, day string) error {
	return c.client.Del(ctx, slotsKey(resourceID, day)).Err()
}

// releaseLock deletes the lock only while it still holds the caller's token,
// so an expired lock taken over by another instance survives.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireDayLock returns the token that ReleaseDayLock must present.
func (c *RedisCache) AcquireDayLock(ctx context.Context, resourceID int64, day string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, dayLockKey(resourceID, day), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseDayLock(ctx context.Context, resourceID int64, day, token string) error {
	return releaseLock.Run(ctx, c.client, []string{dayLockKey(resourceID, day)}, token).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func slotsKey(resourceID int64, day string) string {
	return fmt.Sprintf("cache:slots:resource:%d:day:%s", resourceID, day)
}

func durationField(d time.Duration) string {
	return strconv.Itoa(int(d / time.Minute))
}

func dayLockKey(resourceID int64, day string) string {
	return "lock:" + domain.DayLockKey(resourceID, day)
}
