package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tackler-server/config"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client used by the draft store
func InitRedis() error {
	opt, err := redis.ParseURL(config.AppConfig.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opt)

	// Test the connection before publishing the client. A nil RedisClient is
	// how the draft endpoints know the store is unavailable.
	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	RedisClient = client
	return nil
}
