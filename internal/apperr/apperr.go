// Package apperr defines the application error taxonomy. Every handler
// failure is one of these kinds; the HTTP boundary maps the kind to a status
// code and renders a single JSON error shape.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal        Kind = iota // unexpected failure, 500
	Validation                  // missing or malformed input, 400
	Auth                        // missing/invalid token or ownership violation, 401
	NotFound                    // referenced entity absent, 404
	Conflict                    // duplicate unique field, 400
	BusinessRule                // e.g. insufficient stock, 400
	PaymentDeclined             // simulated gateway rejection, 402
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap annotates an underlying error with a kind and a client-facing message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Status maps an error to its HTTP status code. Unknown errors are 500.
func Status(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Validation, Conflict, BusinessRule:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case PaymentDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the client-facing message for an error. Unknown errors
// get a generic message so internals never leak.
func MessageFor(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Error interno del servidor."
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
