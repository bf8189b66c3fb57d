package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeInvalidMessageKind = "invalid_message_kind"
	ErrCodeMessageSendFailed  = "message_send_failed"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeForbidden          = "forbidden"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnauthenticated    = "unauthenticated"
	ErrCodeUserNotFound       = "user_not_found"
)

var (
	ErrInvalidMessageKind = errors.New("invalid message type")
	ErrEmptyContent       = errors.New("content is required for text messages")
	ErrMessageSendFailed  = errors.New("failed to send message")
	ErrNotFound           = errors.New("message not found")
	ErrForbidden          = errors.New("not authorized to delete this message")
	ErrBadRequest         = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// sendError maps a relay failure to what the sender is told. Storage details stay in the log.
func sendError(err error) *CoreError {
	switch {
	case errors.Is(err, ErrInvalidMessageKind):
		return coreError(ErrCodeInvalidMessageKind, ErrInvalidMessageKind.Error())
	case errors.Is(err, ErrEmptyContent):
		return coreError(ErrCodeMessageSendFailed, ErrEmptyContent.Error())
	default:
		return coreError(ErrCodeMessageSendFailed, "Failed to send message")
	}
}

func wrapSendFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrMessageSendFailed, err)
}
