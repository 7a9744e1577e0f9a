package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// LoginLimitKey namespaces per-email login attempt counters.
func LoginLimitKey(email string) string {
	return fmt.Sprintf("login:%s", email)
}

// OTPRequestKey namespaces per-email OTP issuance counters shared by the
// resend and forgot-password endpoints.
func OTPRequestKey(email string) string {
	return fmt.Sprintf("otp_request:%s", email)
}
