package utils

import (
	"context"
	"fillop/config"
	"fillop/logger"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// OTPThrottle enforces the resend cooldown between two codes sent to the same
// address. Allow returns the remaining wait when the address is still cooling down.
type OTPThrottle interface {
	Allow(ctx context.Context, email, purpose string) (bool, time.Duration, error)
}

var (
	throttleMu sync.RWMutex
	throttle   OTPThrottle
)

func SetOTPThrottle(t OTPThrottle) {
	throttleMu.Lock()
	defer throttleMu.Unlock()
	throttle = t
}

func CurrentOTPThrottle() OTPThrottle {
	throttleMu.RLock()
	defer throttleMu.RUnlock()
	return throttle
}

func cooldown(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.OTPCooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.OTPCooldownSeconds) * time.Second
}

// InitOTPThrottle uses redis when REDIS_URL is set and reachable, and the OTP
// table otherwise.
func InitOTPThrottle(cfg *config.Config, db *gorm.DB) OTPThrottle {
	var t OTPThrottle = &DBThrottle{DB: db, Cooldown: cooldown(cfg)}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rt, err := NewRedisThrottle(cfg.RedisURL, cooldown(cfg))
		if err != nil {
			logger.Log.Warn("redis unavailable, falling back to database otp throttle", "error", err)
		} else {
			t = rt
		}
	}
	SetOTPThrottle(t)
	return t
}

// RedisThrottle claims a per-address key with SET NX and lets it expire.
type RedisThrottle struct {
	rdb      *redis.Client
	cooldown time.Duration
}

func NewRedisThrottle(url string, cd time.Duration) (*RedisThrottle, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisThrottleClient(rdb, cd), nil
}

func NewRedisThrottleClient(rdb *redis.Client, cd time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, cooldown: cd}
}

func (r *RedisThrottle) key(email, purpose string) string {
	return "otp:cooldown:" + purpose + ":" + strings.ToLower(email)
}

func (r *RedisThrottle) Allow(ctx context.Context, email, purpose string) (bool, time.Duration, error) {
	if r.cooldown <= 0 {
		return true, 0, nil
	}
	key := r.key(email, purpose)
	ok, err := r.rdb.SetNX(ctx, key, time.Now().Unix(), r.cooldown).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	return false, ttl, nil
}

func (r *RedisThrottle) Close() error {
	return r.rdb.Close()
}

// DBThrottle looks at the newest OTP row for the address.
type DBThrottle struct {
	DB       *gorm.DB
	Cooldown time.Duration
}

func (d *DBThrottle) Allow(ctx context.Context, email, purpose string) (bool, time.Duration, error) {
	if d.Cooldown <= 0 {
		return true, 0, nil
	}
	var last struct {
		CreatedAt time.Time
	}
	res := d.DB.WithContext(ctx).Table("otps").Select("created_at").
		Where("email = ? AND purpose = ?", strings.ToLower(email), purpose).
		Order("created_at DESC").Limit(1).Scan(&last)
	if res.Error != nil {
		return false, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return true, 0, nil
	}
	if wait := d.Cooldown - time.Since(last.CreatedAt); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}
