package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/piresc/otpgate/internal/pkg/constants"
	"github.com/piresc/otpgate/internal/pkg/database"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/services/auth"
)

// cachedUser mirrors models.User but keeps the password hash, which the API model hides from JSON
type cachedUser struct {
	ID           uuid.UUID `json:"id"`
	MSISDN       string    `json:"msisdn"`
	FullName     string    `json:"fullname"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsActive     bool      `json:"is_active"`
}

// CachedUserRepo is a read-through Redis cache of users keyed by MSISDN.
// Redis failures are logged and fall back to the wrapped repository.
type CachedUserRepo struct {
	next  auth.UserRepo
	redis *database.RedisClient
	ttl   time.Duration
}

// NewCachedUserRepo wraps next with a Redis cache
func NewCachedUserRepo(next auth.UserRepo, redisClient *database.RedisClient, ttl time.Duration) *CachedUserRepo {
	return &CachedUserRepo{
		next:  next,
		redis: redisClient,
		ttl:   ttl,
	}
}

// GetUserByMSISDN returns the cached user or loads and caches it
func (r *CachedUserRepo) GetUserByMSISDN(ctx context.Context, msisdn string) (*models.User, error) {
	key := fmt.Sprintf(constants.KeyUserByMSISDN, msisdn)

	val, err := r.redis.Get(ctx, key)
	switch {
	case err == nil:
		var cu cachedUser
		if err := json.Unmarshal([]byte(val), &cu); err == nil {
			return cu.toUser(), nil
		}
		logger.Warn("Discarding malformed cached user", logger.String("key", key))
	case !errors.Is(err, redis.Nil):
		logger.WarnCtx(ctx, "Failed to read user cache", logger.String("key", key), logger.Err(err))
	}

	user, err := r.next.GetUserByMSISDN(ctx, msisdn)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, user)
	return user, nil
}

// GetUserByID is not cached
func (r *CachedUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.next.GetUserByID(ctx, id)
}

// CreateUser creates the user and drops any stale cache entry for its MSISDN
func (r *CachedUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.next.CreateUser(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.MSISDN)
	return nil
}

// UpdatePassword updates the hash and evicts the user's cache entry
func (r *CachedUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := r.next.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}

	user, err := r.next.GetUserByID(ctx, id)
	if err != nil {
		logger.WarnCtx(ctx, "Could not resolve user for cache eviction",
			logger.String("user_id", id), logger.Err(err))
		return nil
	}
	r.invalidate(ctx, user.MSISDN)
	return nil
}

func (r *CachedUserRepo) store(ctx context.Context, key string, user *models.User) {
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		logger.Warn("Failed to encode user for cache", logger.Err(err))
		return
	}
	if err := r.redis.Set(ctx, key, data, r.ttl); err != nil {
		logger.WarnCtx(ctx, "Failed to write user cache", logger.String("key", key), logger.Err(err))
	}
}

func (r *CachedUserRepo) invalidate(ctx context.Context, msisdn string) {
	key := fmt.Sprintf(constants.KeyUserByMSISDN, msisdn)
	if err := r.redis.Delete(ctx, key); err != nil {
		logger.WarnCtx(ctx, "Failed to evict user cache", logger.String("key", key), logger.Err(err))
	}
}

func fromUser(u *models.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		MSISDN:       u.MSISDN,
		FullName:     u.FullName,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		IsActive:     u.IsActive,
	}
}

func (cu cachedUser) toUser() *models.User {
	return &models.User{
		ID:           cu.ID,
		MSISDN:       cu.MSISDN,
		FullName:     cu.FullName,
		Role:         cu.Role,
		PasswordHash: cu.PasswordHash,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
		IsActive:     cu.IsActive,
	}
}

var _ auth.UserRepo = (*CachedUserRepo)(nil)
