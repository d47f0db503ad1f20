// Package redisstore implements the short-lived stores on Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

func Open(conf *core.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

type otpStore struct {
	client *redis.Client
}

// NewOTPStore keeps OTPs in Redis keyed by email; expiry is delegated to
// the key TTL.
func NewOTPStore(client *redis.Client) user.OTPStore {
	return &otpStore{client: client}
}

func otpKey(email string) string { return "otp:" + email }

func (s *otpStore) SetOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(email), code, ttl).Err()
}

func (s *otpStore) GetOTP(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return "", user.ErrInvalidOTP
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *otpStore) DeleteOTP(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKey(email)).Err()
}
