package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "auth-service:audit"

// RedisPublisher forwards events as JSON to a Redis pub/sub channel behind a
// circuit breaker.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	cb      *gobreaker.CircuitBreaker
}

// PublisherOption tunes the breaker.
type PublisherOption func(*gobreaker.Settings)

// WithFailureThreshold opens the breaker after n consecutive failures.
func WithFailureThreshold(n uint32) PublisherOption {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= n
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) PublisherOption {
	return func(s *gobreaker.Settings) {
		s.Timeout = d
	}
}

// WithStateObserver is called on every breaker transition.
func WithStateObserver(fn func(name string, from, to gobreaker.State)) PublisherOption {
	return func(s *gobreaker.Settings) {
		s.OnStateChange = fn
	}
}

// NewRedisPublisher builds a publisher. A nil client yields a publisher that drops events.
func NewRedisPublisher(client *redis.Client, channel string, opts ...PublisherOption) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	settings := gobreaker.Settings{
		Name:        "redis-audit",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// Channel returns the destination channel.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// State exposes the breaker state.
func (p *RedisPublisher) State() gobreaker.State {
	return p.cb.State()
}

// Publish sends event to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.client.Publish(ctx, p.channel, data).Err()
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}
