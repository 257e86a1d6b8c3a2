package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tackler-server/config"
)

func TestInitRedisUnreachable(t *testing.T) {
	prevConfig := config.AppConfig
	prevClient := RedisClient
	t.Cleanup(func() {
		config.AppConfig = prevConfig
		RedisClient = prevClient
	})

	RedisClient = nil
	config.AppConfig = &config.Config{
		Redis: config.RedisConfig{
			URL:      "redis://127.0.0.1:1/0",
			DraftTTL: time.Hour,
		},
	}

	err := InitRedis()
	require.Error(t, err)

	// The draft endpoints treat a nil client as "drafts disabled", so a
	// failed init must not leave a dead client behind.
	assert.Nil(t, RedisClient)
}

func TestInitRedisBadURL(t *testing.T) {
	prevConfig := config.AppConfig
	prevClient := RedisClient
	t.Cleanup(func() {
		config.AppConfig = prevConfig
		RedisClient = prevClient
	})

	RedisClient = nil
	config.AppConfig = &config.Config{
		Redis: config.RedisConfig{URL: "not-a-redis-url"},
	}

	err := InitRedis()
	require.Error(t, err)
	assert.Nil(t, RedisClient)
}
