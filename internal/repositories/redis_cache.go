package repositories

import (
	"context"
	"encoding/json"
	"time"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) CacheRepository {
	return &redisCacheRepository{client: client}
}

func (r *redisCacheRepository) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisCacheRepository) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisCacheRepository) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

func (r *redisCacheRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func accountCacheKey(accountID uuid.UUID) string {
	return "account:" + accountID.String()
}

func (r *redisCacheRepository) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	val, err := r.Get(ctx, accountCacheKey(accountID))
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := json.Unmarshal([]byte(val), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *redisCacheRepository) SetAccount(ctx context.Context, account *models.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, accountCacheKey(account.ID), data, DefaultExpiration).Err()
}

func (r *redisCacheRepository) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.client.Del(ctx, accountCacheKey(accountID)).Err()
}

func (r *redisCacheRepository) Close() error {
	return r.client.Close()
}
