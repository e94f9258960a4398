package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/microservices/http-api/repository"
)

// Stores bundles the repositories selected by STORE_DRIVER
type Stores struct {
	Messages   repository.MessageStore
	Principals repository.PrincipalRepository
	ping       func(ctx context.Context) error
	closers    []func(ctx context.Context) error
}

// Open connects the configured backend and, when REDIS_URL is set, puts the
// principal cache in front of it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stores, error) {
	stores := &Stores{}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, pool, err := ConnectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		stores.Messages = repository.NewMessageRepository(db)
		stores.Principals = repository.NewPrincipalRepository(db)
		stores.ping = pool.Ping
		stores.closers = append(stores.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
	case config.StoreMongo:
		client, db, err := ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMessageIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		stores.Messages = repository.NewMongoMessageStore(db)
		stores.Principals = repository.NewMongoPrincipalRepository(db)
		stores.ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		stores.closers = append(stores.closers, client.Disconnect)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.CacheEnabled() {
		rdb, err := ConnectRedis(ctx, cfg, log)
		if err != nil {
			// the cache is optional, keep serving from the store
			log.Warn("principal_cache_disabled", "error", err)
		} else {
			stores.Principals = repository.NewCachedPrincipalRepository(stores.Principals, rdb, time.Duration(cfg.CacheTTL)*time.Second)
			stores.closers = append(stores.closers, func(context.Context) error { return rdb.Close() })
		}
	}

	return stores, nil
}

// Ping checks the primary store
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases connections in reverse order of opening
func (s *Stores) Close(ctx context.Context) error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
