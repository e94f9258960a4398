package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"coursehub/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

const principalKeyPrefix = "principal:"

// cachedPrincipalRepository is a cache-aside decorator in front of another
// PrincipalRepository. Redis failures degrade to the underlying store.
type cachedPrincipalRepository struct {
	next   PrincipalRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedPrincipalRepository(next PrincipalRepository, client *redis.Client, ttl time.Duration) PrincipalRepository {
	return &cachedPrincipalRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

func (r *cachedPrincipalRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	key := principalKeyPrefix + email

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var principal models.Principal
		if jsonErr := json.Unmarshal(data, &principal); jsonErr == nil {
			return &principal, nil
		}
		r.logger.Warn("principal_cache_corrupt", "email", email)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("principal_cache_get_failed", "email", email, "error", err)
	}

	principal, err := r.next.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(principal); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("principal_cache_set_failed", "email", email, "error", err)
		}
	}
	return principal, nil
}

func (r *cachedPrincipalRepository) Create(ctx context.Context, principal *models.Principal) error {
	if err := r.next.Create(ctx, principal); err != nil {
		return err
	}
	r.invalidate(ctx, principal.Email)
	return nil
}

func (r *cachedPrincipalRepository) UpdateRole(ctx context.Context, email, role string) error {
	if err := r.next.UpdateRole(ctx, email, role); err != nil {
		return err
	}
	r.invalidate(ctx, email)
	return nil
}

func (r *cachedPrincipalRepository) List(ctx context.Context) ([]models.Principal, error) {
	return r.next.List(ctx)
}

func (r *cachedPrincipalRepository) invalidate(ctx context.Context, email string) {
	if err := r.client.Del(ctx, principalKeyPrefix+email).Err(); err != nil {
		r.logger.Warn("principal_cache_invalidate_failed", "email", email, "error", err)
	}
}
