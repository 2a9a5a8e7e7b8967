package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/events"
)

func TestPasswordResetLinkReachesMailerButNotLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	notifications := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@directory.test"})
	notifications.RegisterHandlers()

	const link = "http://directory.test/auth/resetPassword/LINK.SECRET.TOKEN"
	expires := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	event := events.NewEvent(events.EventPasswordResetRequested, "user-1", "user-1", expires.Add(-time.Hour), events.PasswordResetPayload{
		Email:     "reset@example.com",
		ResetLink: link,
		ExpiresAt: expires,
	})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	sent := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, sent, 1)
	fields := sent[0].ContextMap()
	assert.Equal(t, "reset@example.com", fields["to"])
	assert.Equal(t, true, fields["has_link"])

	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, "LINK.SECRET.TOKEN")
		for key, value := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(value), "LINK.SECRET.TOKEN", "field %s of %q", key, entry.Message)
		}
	}
}

func TestAccountEventsMailWithoutLink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@directory.test"}).RegisterHandlers()

	event := events.NewEvent(events.EventUserRegistered, "user-2", "user-2", time.Now(), events.UserPayload{Email: "new@example.com"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	sent := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, sent, 1)
	assert.Equal(t, false, sent[0].ContextMap()["has_link"])
}
