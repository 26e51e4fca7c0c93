// Package services defines the business logic for the assistant pipeline.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a chat request contains no message.
	// No side effects have been performed when it is returned.
	ErrEmptyMessage = errors.New("message is required")

	// ErrUpstreamUnavailable indicates the completion provider could not
	// produce a response: either the circuit breaker was open, or an
	// attempted call failed. Handlers map it to a 500 with a user-safe
	// apology body.
	ErrUpstreamUnavailable = errors.New("assistant upstream unavailable")
)
