package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustgate/internal/verifycode/models"
	"trustgate/pkg/platform/sentinel"
)

const (
	codeKeyPrefix     = "verifycode:code:"
	attemptsKeyPrefix = "verifycode:attempts:"
	verifiedKeyPrefix = "verifycode:verified:"
)

// RedisStore keeps codes in Redis and lets key TTLs do the expiry.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveCode(ctx context.Context, code *models.Code) error {
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal code: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKeyPrefix+code.Email, payload, ttl)
		pipe.Del(ctx, attemptsKeyPrefix+code.Email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return nil
}

func (s *RedisStore) FindCode(ctx context.Context, email string, now time.Time) (*models.Code, error) {
	raw, err := s.client.Get(ctx, codeKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get code: %w", err)
	}
	var code models.Code
	if err := json.Unmarshal(raw, &code); err != nil {
		return nil, fmt.Errorf("unmarshal code: %w", err)
	}
	if code.IsExpired(now) {
		return nil, sentinel.ErrNotFound
	}

	attempts, err := s.client.Get(ctx, attemptsKeyPrefix+email).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get attempts: %w", err)
	}
	code.Attempts = attempts
	return &code, nil
}

// IncrementAttempts bumps the counter atomically; it expires with the code.
func (s *RedisStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	ttl, err := s.client.PTTL(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		return 0, fmt.Errorf("read code ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, sentinel.ErrNotFound
	}

	var incr *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKeyPrefix+email)
		pipe.PExpire(ctx, attemptsKeyPrefix+email, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) DeleteCode(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, codeKeyPrefix+email, attemptsKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkVerified(ctx context.Context, email string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	if err := s.client.Set(ctx, verifiedKeyPrefix+email, until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

func (s *RedisStore) IsVerified(ctx context.Context, email string, now time.Time) (bool, error) {
	until, err := s.client.Get(ctx, verifiedKeyPrefix+email).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check verified: %w", err)
	}
	return now.Unix() < until, nil
}
