package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for unknown request, donor or match ids.
var ErrNotFound = errors.New("not found")

// ValidationError covers malformed or missing caller input. These are
// caller-fixable and never retried by the system.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type ConflictReason string

const (
	ConflictAlreadyMatched    ConflictReason = "already_matched"
	ConflictAlreadyResponded  ConflictReason = "already_responded"
	ConflictRequestClosed     ConflictReason = "request_closed"
	ConflictIllegalTransition ConflictReason = "illegal_transition"
	ConflictDuplicateMatch    ConflictReason = "duplicate_match"
)

// ConflictError is returned for lost races on accept, illegal state
// transitions and duplicate matches. The reason code lets callers tell
// "you lost the race" apart from "you already responded" and "request
// no longer open" without parsing messages.
type ConflictError struct {
	Reason  ConflictReason
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(reason ConflictReason, message string) *ConflictError {
	return &ConflictError{Reason: reason, Message: message}
}

// UpstreamError wraps persistence and broker failures so they surface
// with the failing operation attached instead of being swallowed.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}
