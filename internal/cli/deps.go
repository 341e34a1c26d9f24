package cli

import (
	"context"
	"fmt"

	"trivia-events-service/internal/config"
	mongostore "trivia-events-service/internal/infra/mongo"
	"trivia-events-service/internal/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// openMongo returns nil when Mongo is not configured.
func openMongo(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Mongo.URI == "" {
		return nil, nil, nil
	}
	client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.Mongo.Database)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, db, nil
}

// openRedis returns nil when Redis is not configured.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// openPostgres returns nil when Postgres is not configured.
func openPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.Postgres.URL == "" {
		return nil, nil
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
