// Package services defines the business logic for sessions, messages,
// record tables, analytics and runtime settings. This file centralizes the
// service-level error values so handlers can map them to HTTP results
// consistently.
package services

import "errors"

var (
	// ErrSessionNotFound indicates that the requested session does not exist
	// or is not owned by the current user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyPrompt is returned when a query is blank after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a query exceeds the configured rune limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrUnknownKind is returned for a record table name that is not one of
	// skus, claims, sales or dealers.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrIdempotencyReused is returned when an Idempotency-Key already
	// answered a different prompt in the same session.
	ErrIdempotencyReused = errors.New("idempotency key reused for a different prompt")

	// ErrEmptyKey is returned when a blank model credential is submitted.
	ErrEmptyKey = errors.New("api key is empty")
)
