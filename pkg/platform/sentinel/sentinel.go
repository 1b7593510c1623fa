// Package sentinel holds infrastructure facts shared by stores.
//
// Stores return these (optionally wrapped) and services translate them into
// coded domain errors. They describe what happened to a record, never whether
// caller input was acceptable; input problems use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no record for the requested key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyUsed: a unique value (email, one-time code) is taken or consumed.
	ErrAlreadyUsed = errors.New("already used")
	// ErrExpired: a time-bound record outlived its TTL.
	ErrExpired = errors.New("expired")
	// ErrInvalidState: the record exists but cannot take the requested transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
