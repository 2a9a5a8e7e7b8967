package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

const tokenRejectedMessage = "invalid or expired token"

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindExpiredToken, apperrors.KindInvalidToken, apperrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindTooManyRequests:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func isTokenKind(kind apperrors.Kind) bool {
	return kind == apperrors.KindExpiredToken || kind == apperrors.KindInvalidToken
}

// errorBody renders err for the client. Token failures share one payload so
// holders cannot tell expired tokens from forged ones; internal errors never
// expose their cause.
func errorBody(err error) (int, fiber.Map) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiber.Map{"error": fiber.Map{
			"code":    fiberErrorCode(fiberErr.Code),
			"message": fiberErr.Message,
		}}
	}

	domainErr := apperrors.ToDomainError(err)
	status := StatusForKind(domainErr.Kind)
	body := fiber.Map{}

	switch {
	case isTokenKind(domainErr.Kind):
		body["code"] = string(apperrors.KindUnauthorized)
		body["message"] = tokenRejectedMessage
	case status >= fiber.StatusInternalServerError:
		body["code"] = string(apperrors.KindInternal)
		body["message"] = "internal server error"
	default:
		body["code"] = string(domainErr.Kind)
		body["message"] = domainErr.Message
		if len(domainErr.Details) > 0 {
			body["details"] = domainErr.Details
		}
	}
	return status, fiber.Map{"error": body}
}

// errorKindLabel names the failure for logs and metrics. Unlike the response
// body it keeps token kinds apart.
func errorKindLabel(err error) apperrors.Kind {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.Kind(fiberErrorCode(fiberErr.Code))
	}
	return apperrors.KindOf(err)
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return string(apperrors.KindNotFound)
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return string(apperrors.KindValidation)
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		if status >= fiber.StatusInternalServerError {
			return string(apperrors.KindInternal)
		}
		return "REQUEST_FAILED"
	}
}
