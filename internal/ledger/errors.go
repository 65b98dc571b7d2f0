package ledger

import "errors"

// Every error below is fatal to the enclosing call: the surrounding
// store.Update rolls back and persisted state is unchanged. Handlers match
// these with errors.Is to pick HTTP status codes.

var (
	ErrUnauthorized = errors.New("principal has not authorized this call")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrInvalidState     = errors.New("event is not active")
	ErrCapacityExceeded = errors.New("event is at capacity")
	ErrDuplicateTicket  = errors.New("already holds a ticket for this event")
)

var (
	ErrAlreadyClaimed      = errors.New("reward already claimed for this event")
	ErrNoRewardConfigured  = errors.New("no reward configured for this event")
	ErrInsufficientPool    = errors.New("insufficient tokens in reward pool")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

var (
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
)
