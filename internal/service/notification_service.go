package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleAccountEvent)
	n.dispatcher.Subscribe(events.EventUserCreated, n.handleAccountEvent)
	n.dispatcher.Subscribe(events.EventUserDeactivated, n.handleAccountEvent)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handleAccountEvent)
	for _, t := range []events.EventType{
		events.EventCompanyCreated,
		events.EventCompanyUpdated,
		events.EventCompanyDeleted,
		events.EventCompanyStatusChanged,
	} {
		n.dispatcher.Subscribe(t, n.handleCompanyEvent)
	}
}

func (n *NotificationService) handleAccountEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("account event",
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.SubjectID),
		zap.String("actor_id", event.ActorID))
	if payload, ok := event.Payload.(events.UserPayload); ok {
		n.sendEmailNotificationStub(ctx, event, payload.Email, "")
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// handlePasswordReset delivers the reset link. The link is a credential and
// is handed to the mail stub only, never to the logger.
func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetPayload)
	if !ok {
		return nil
	}
	n.logger.Info("password reset requested",
		zap.String("user_id", event.SubjectID),
		zap.Time("expires_at", payload.ExpiresAt))
	n.sendEmailNotificationStub(ctx, event, payload.Email, payload.ResetLink)
	return nil
}

func (n *NotificationService) handleCompanyEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("company event",
		zap.String("event_type", string(event.Type)),
		zap.String("company_id", event.SubjectID),
		zap.String("actor_id", event.ActorID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// sendEmailNotificationStub stands in for a mailer. link goes into the message
// body only.
func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)),
		zap.Bool("has_link", link != ""))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
