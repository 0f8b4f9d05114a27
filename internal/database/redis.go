package database

import (
	"context"

	"github.com/brainforcegit/vin-bot/config"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns a client for the configured Redis and pings it.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
