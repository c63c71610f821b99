package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (c *LoginChecker) UserFor(ctx context.Context, token string) (string, error) {
	val, err := c.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", err
	}

	session, err := parseSessionValue(token, val)
	if err != nil {
		return "", err
	}

	if time.Since(session.CreatedAt) > c.ttl {
		return "", ErrNoSession
	}

	return session.UserID, nil
}
