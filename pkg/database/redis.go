package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studysync_backend/internal/config"
	"studysync_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	logger.Log.Info("Redis connection established")
	return rdb, nil
}

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("lock is held by another request")

// 只删除自己持有的锁，避免过期后误删别人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker 基于 SETNX 的短期互斥锁。client 为 nil 时所有操作直接成功。
type Locker struct {
	client *redis.Client
	prefix string
}

func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Acquire 成功时返回释放函数；锁被占用返回 ErrLockHeld，redis 故障原样返回
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := l.prefix + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}, nil
}
