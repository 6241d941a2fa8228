package utils

import (
	"context"
	"fmt"
	"time"

	"bookline/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient builds a Redis client for the given logical DB and verifies
// connectivity. Callers own the returned client; nothing here is a
// module-level singleton, so tests can run several independent stores.
func NewRedisClient(db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (db %d): %w", db, err)
	}
	return client, nil
}

// NewSessionCacheClient returns the client backing the chat session store.
func NewSessionCacheClient() (*redis.Client, error) {
	return NewRedisClient(config.AppConfig.RedisSessionDB)
}
