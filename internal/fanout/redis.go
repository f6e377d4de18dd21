package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	ws "github.com/dukerupert/basket/internal/websocket"
)

const channelPrefix = "basket:group:"

// Channel returns the pub/sub channel carrying a group's messages.
func Channel(group string) string {
	return channelPrefix + group
}

// groupFromChannel extracts the group code from a channel name.
func groupFromChannel(channel string) (string, bool) {
	group, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok || group == "" {
		return "", false
	}
	return group, true
}

// RedisConfig holds the connection settings for the Redis relay.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Redis publishes messages on a per-group channel. Run relays every group's
// channel back into the local hub, so each replica serves its own sockets.
type Redis struct {
	rdb    *redis.Client
	hub    Hub
	logger *slog.Logger
}

func NewRedis(rdb *redis.Client, hub Hub, logger *slog.Logger) *Redis {
	return &Redis{rdb: rdb, hub: hub, logger: logger}
}

func (r *Redis) Publish(ctx context.Context, group string, msg ws.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.rdb.Publish(ctx, Channel(group), data).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Run relays published messages to local subscribers until ctx is cancelled.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe: %w", err)
	}
	r.logger.Info("relay subscribed", "pattern", channelPrefix+"*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			group, ok := groupFromChannel(msg.Channel)
			if !ok {
				r.logger.Warn("ignoring message on unexpected channel", "channel", msg.Channel)
				continue
			}
			r.hub.Deliver(group, []byte(msg.Payload))
		}
	}
}
