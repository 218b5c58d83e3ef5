// Package apperr defines the error taxonomy shared by services and mapped to
// HTTP statuses at the handler edge. Services never pick status codes
// themselves; they return an *Error with a kind and the handlers translate.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
)

type Error struct {
	Kind    Kind
	Message string

	// Details carries per-field validation messages.
	Details []string

	// Rate-limit metadata, set only for KindRateLimit.
	Limit      int
	Remaining  int
	ResetTime  int64
	RetryAfter int
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func RateLimit(message string, limit, remaining int, resetTime int64, retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Message:    message,
		Limit:      limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// As unwraps err into an *Error, or nil when err is not one.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if appErr := As(err); appErr != nil {
		return appErr.Kind == kind
	}
	return false
}

// Status returns the HTTP status code for err, 500 for unclassified errors.
func Status(err error) int {
	appErr := As(err)
	if appErr == nil {
		return 500
	}
	switch appErr.Kind {
	case KindValidation:
		return 400
	case KindAuthentication:
		return 401
	case KindAuthorization:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindRateLimit:
		return 429
	default:
		return 500
	}
}
