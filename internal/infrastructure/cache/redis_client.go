// Package cache provides the shared Redis connection used by the cache,
// the task queue and the readiness check
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a Redis client, in cluster mode when cluster nodes are configured
func NewRedisClient(cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	rc := cfg.Redis

	// Create Redis options
	opts := &redis.UniversalOptions{
		Addrs:        []string{cfg.RedisAddr()},
		Password:     rc.Password,
		DB:           rc.Database,
		MaxRetries:   rc.MaxRetries,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,

		// Connection timeouts
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,

		// Connection pool settings
		PoolTimeout:     time.Second * 10,
		ConnMaxIdleTime: time.Minute * 5,
	}

	// Configure cluster mode if enabled
	if rc.EnableCluster && len(rc.ClusterNodes) > 0 {
		opts.Addrs = rc.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", rc.ClusterNodes))
	}

	client := redis.NewUniversalClient(opts)

	// Test initial connection
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", rc.Database),
		zap.Bool("cluster_enabled", rc.EnableCluster))

	return client, nil
}
