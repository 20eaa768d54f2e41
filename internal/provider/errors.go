// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider defines the failure taxonomy shared by the metadata
// provider clients. Implements: prd003-providers (error handling).
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure.
type Kind string

const (
	// KindTooManyRequests is a provider rate limit hit despite the local
	// limiter; transient.
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"

	// KindNotFound means the requested resource is absent.
	KindNotFound Kind = "NOT_FOUND"

	// KindTimeout means the request exceeded its deadline.
	KindTimeout Kind = "TIMEOUT"

	// KindBadRequest means the call was malformed or the provider response
	// could not be parsed.
	KindBadRequest Kind = "BAD_REQUEST"

	// KindInternal is any other transport or provider failure.
	KindInternal Kind = "INTERNAL_SERVER_ERROR"
)

// Error is a classified failure from a provider client. It always carries
// the provider name and the operation for meaningful logging.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Status   int
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.cause)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Provider, e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a classified error without an HTTP status.
func New(kind Kind, providerName, op string, cause error) *Error {
	return &Error{Kind: kind, Provider: providerName, Op: op, cause: cause}
}

// FromStatus maps an unexpected HTTP status to a classified error.
func FromStatus(providerName, op string, status int) *Error {
	kind := KindInternal
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindTooManyRequests
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 400 && status < 500:
		kind = KindBadRequest
	}
	return &Error{Kind: kind, Provider: providerName, Op: op, Status: status}
}

// Classify wraps a transport error, detecting deadline and network timeouts.
func Classify(providerName, op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, providerName, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(KindTimeout, providerName, op, err)
	}
	return New(KindInternal, providerName, op, err)
}

// KindOf returns the Kind of a classified error, or KindInternal for
// anything else.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NOT_FOUND provider failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsRateLimited reports whether err is a TOO_MANY_REQUESTS provider failure.
func IsRateLimited(err error) bool { return KindOf(err) == KindTooManyRequests }

// IsTimeout reports whether err is a TIMEOUT provider failure.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }
