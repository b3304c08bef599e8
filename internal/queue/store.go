package queue

import (
	"context"

	"github.com/redis/go-redis/v9"

	"reaplex/internal/config"
)

// NewRedisClient builds the go-redis client the Queue runs its scripts
// against, grounded on the teacher's pkg/utils/redis.go NewRedisClient
// (URL parsing plus explicit timeout/password/db overrides).
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Password != "" {
		opt.Password = cfg.Redis.Password
	}
	opt.DB = cfg.Redis.DB
	opt.DialTimeout = cfg.Redis.Timeout
	opt.ReadTimeout = cfg.Redis.Timeout
	opt.WriteTimeout = cfg.Redis.Timeout

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
