package core

import (
	"context"
	"errors"
)

var (
	// ErrInvalidState signals an operation on an uninitialized or misconfigured room.
	ErrInvalidState = errors.New("invalid state")
	// ErrNoAgentSelected signals that a selection strategy produced no agent.
	ErrNoAgentSelected = errors.New("no agent selected")
	// ErrUpstreamCompletion wraps failures of a model stream.
	ErrUpstreamCompletion = errors.New("upstream completion failure")
	// ErrMalformedDecision marks a decision text without the expected fields.
	// It is logged and counted, never surfaced to clients.
	ErrMalformedDecision = errors.New("malformed decision")
	// ErrTurnInProgress rejects a message for a room whose loop is still running.
	ErrTurnInProgress = errors.New("turn in progress")
)

// ErrorKind maps an error to its taxonomy name.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled"
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrTurnInProgress):
		return "InvalidState"
	case errors.Is(err, ErrNoAgentSelected):
		return "NoAgentSelected"
	case errors.Is(err, ErrUpstreamCompletion):
		return "UpstreamCompletionFailure"
	case errors.Is(err, ErrMalformedDecision):
		return "MalformedDecision"
	default:
		return "Unknown"
	}
}
