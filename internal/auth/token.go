package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/directory-service/internal/domain"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

var (
	errMissingSecret  = errors.New("token signing secret is required")
	errNonPositiveTTL = errors.New("token ttl must be positive")
	errMissingSubject = errors.New("token subject is required")
)

// TokenConfig is the immutable signing configuration of a TokenManager.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock injects the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// TokenManager handles issuing and validating HS256 session tokens.
// There is no revocation list: a token stays valid until it expires.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager builds a new manager. A missing secret or non-positive TTL
// is a configuration error.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errMissingSecret
	}
	if cfg.TTL <= 0 {
		return nil, errNonPositiveTTL
	}
	tm := &TokenManager{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	jwt.RegisteredClaims
}

// TTL returns the default lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// IssueDefault issues a token for subjectID with the default TTL.
func (tm *TokenManager) IssueDefault(subjectID string) (domain.Session, error) {
	return tm.Issue(subjectID, tm.ttl)
}

// Issue builds and signs a token for subjectID that expires after ttl.
func (tm *TokenManager) Issue(subjectID string, ttl time.Duration) (domain.Session, error) {
	if strings.TrimSpace(subjectID) == "" {
		return domain.Session{}, errMissingSubject
	}
	if ttl <= 0 {
		return domain.Session{}, errNonPositiveTTL
	}

	issuedAt := tm.now().UTC().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Token:     signed,
		SubjectID: subjectID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies signature and expiry and returns the subject id.
func (tm *TokenManager) Validate(tokenStr string) (string, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseToken validates and returns claims. A token expires once now is past
// its expiry. Expired tokens fail with KindExpiredToken, everything else with
// KindInvalidToken.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, apperrors.NewInvalidToken(errors.New("empty token"))
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
		// jwt rejects now == exp; a token stays valid through its expiry instant.
		jwt.WithLeeway(time.Nanosecond),
	}
	if tm.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(tm.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewExpiredToken(err)
		}
		return nil, apperrors.NewInvalidToken(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, apperrors.NewInvalidToken(errors.New("invalid token claims"))
	}
	return claims, nil
}
