package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and checks it with a PING.
func Connect(ctx context.Context, address, password string, database int) (*redis.Client, error) {
	options := &redis.Options{
		Addr: address,
		DB:   database,
	}
	if password != "" {
		options.Password = password
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
