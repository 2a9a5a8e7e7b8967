package service

import (
	"context"
	"time"

	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/events"
)

// resetLinker mints password reset links. A link is an ordinary session
// token with the reset lifetime, embedded in the public reset URL.
type resetLinker struct {
	tokens    *auth.TokenManager
	ttl       time.Duration
	publicURL string
}

func newResetLinker(cfg config.Config, tokens *auth.TokenManager) resetLinker {
	return resetLinker{tokens: tokens, ttl: cfg.Auth.PasswordResetTTL(), publicURL: cfg.App.PublicURL}
}

func (l resetLinker) mint(userID string) (string, domain.Session, error) {
	session, err := l.tokens.Issue(userID, l.ttl)
	if err != nil {
		return "", domain.Session{}, err
	}
	return l.publicURL + "/auth/resetPassword/" + session.Token, session, nil
}

// Page is one window of a listing.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
