package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
)

type capturePublisher struct {
	published []events.Event
	err       error
}

func (c *capturePublisher) Publish(_ context.Context, e events.Event) error {
	c.published = append(c.published, e)
	return c.err
}

func TestAuditServiceLogsCountsAndForwards(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	pub := &capturePublisher{}
	metrics := observability.NewMetrics(nil)

	audit := NewAuditService(dispatcher, pub, metrics, zap.New(core))
	audit.RegisterHandlers()

	ctx := context.Background()
	assert.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginSucceeded, "alice", "alice", nil)))
	assert.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginFailed, "mallory", "", events.LoginPayload{Reason: "BAD_CREDENTIALS"})))

	assert.Len(t, pub.published, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthEvents.WithLabelValues("login_failed")))
	assert.Equal(t, 2, logs.FilterMessage("audit").Len())
	assert.Equal(t, 1, logs.FilterMessage("audit").FilterField(zap.String("subject", "mallory")).Len())
}

func TestAuditPublishFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture(t, false)
	f.seed(t, "alice", "correct-pw", "USER", "ACTIVE")

	audit := NewAuditService(f.dispatcher, &capturePublisher{err: errors.New("redis down")}, nil, nil)
	audit.RegisterHandlers()

	pair, err := f.auth.Login(context.Background(), LoginRequest{Identifier: "alice", Password: "correct-pw"})
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}
