package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const DefaultJobEventChannel = "foodgram.jobs"

type JobEventBus interface {
	Publish(ctx context.Context, ev JobEvent) error
	Subscribe(ctx context.Context, onEvent func(ev JobEvent)) error
	Close() error
}

type redisJobEventBus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// NewRedisJobEventBus connects to addr and pings it before returning.
func NewRedisJobEventBus(log *logger.Logger, addr, channel string) (JobEventBus, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultJobEventChannel
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisJobEventBus{
		log:     log.With("service", "RedisJobEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisJobEventBus) Publish(ctx context.Context, ev JobEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe forwards events until ctx is done.
func (b *redisJobEventBus) Subscribe(ctx context.Context, onEvent func(ev JobEvent)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev JobEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad job event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *redisJobEventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
