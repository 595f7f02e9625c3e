package repositories

import (
	"context"
	"errors"
	"time"

	"atlasbank/internal/models"

	"github.com/google/uuid"
)

// ErrCacheMiss is returned when a key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the cache operations used by the services:
// read-through account caching and TTL keys for OTP resend cooldowns.
type CacheRepository interface {
	// Generic operations
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error

	// Account-specific operations
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	SetAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error

	Close() error
}

// DefaultExpiration is the cache TTL applied to account entries.
const DefaultExpiration = 5 * time.Minute
