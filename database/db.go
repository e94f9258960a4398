package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/microservices/http-api/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 5 * time.Second

// ConnectPostgres opens a pgx pool, hands it to gorm and migrates the schema.
// The returned pool must be closed after the gorm handle is done.
func ConnectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, *pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		// close the pool if ping fails to avoid resource leak
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logLevel := logger.Warn
	if cfg.IsDevelopment() && cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.Principal{}, &models.ChatMessage{}); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connected to the database successfully", "driver", config.StorePostgres)
	return db, pool, nil
}

// ConnectMongo connects to the document store and returns the configured database
func ConnectMongo(ctx context.Context, cfg *config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	log.Info("Connected to the database successfully", "driver", config.StoreMongo, "database", cfg.MongoDatabase)
	return client, client.Database(cfg.MongoDatabase), nil
}

// ConnectRedis connects the principal cache
func ConnectRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis", "addr", opts.Addr)
	return rdb, nil
}
