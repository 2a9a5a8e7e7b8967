package errorutil

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Kind classifies a DomainError. Transport layers decide how a kind is rendered.
type Kind string

const (
	KindExpiredToken    Kind = "EXPIRED_TOKEN"
	KindInvalidToken    Kind = "INVALID_TOKEN"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindValidation      Kind = "VALIDATION_FAILED"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, message string, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, message, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthorized, message, nil)
}

func NewExpiredToken(err error) error {
	return &DomainError{Kind: KindExpiredToken, Message: "token has expired", Err: err}
}

func NewInvalidToken(err error) error {
	return &DomainError{Kind: KindInvalidToken, Message: "token is invalid", Err: err}
}

func NewForbidden(message string, details map[string]any) error {
	return NewDomainError(KindForbidden, message, details)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(KindConflict, message, details)
}

func NewTooManyRequests(message string) error {
	return NewDomainError(KindTooManyRequests, message, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// FromValidation turns ozzo-validation output into a VALIDATION_FAILED error
// that names every violated rule per field.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return NewInternalError(err)
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			if fieldErr != nil {
				details[field] = fieldErr.Error()
			}
		}
		return NewValidationError(fieldErrs.Error(), details)
	}
	return NewValidationError(err.Error(), nil)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Kind
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}
