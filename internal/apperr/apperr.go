package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies failures so transports can map them without knowing every
// package-level sentinel.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidOperation  Kind = "invalid_operation"
	KindComplianceBlocked Kind = "compliance_blocked"
	KindLimitExceeded     Kind = "limit_exceeded"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindRateUnavailable   Kind = "rate_unavailable"
	KindConflict          Kind = "persistence_conflict"
	KindDuplicate         Kind = "duplicate"
	KindUnauthenticated   Kind = "unauthenticated"
)

// Error is a classified error. Package sentinels are *Error values and are
// compared by identity with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

// New builds a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

// KindOf returns the kind of the first classified error in the chain, or an
// empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation, KindInsufficientFunds, KindLimitExceeded:
		return http.StatusBadRequest
	case KindComplianceBlocked:
		return http.StatusForbidden
	case KindRateUnavailable:
		return http.StatusBadGateway
	case KindConflict, KindDuplicate:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
