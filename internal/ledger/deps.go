package ledger

import (
	"context"
	"time"
)

// Gate answers whether a principal has authorized the current call. Every
// mutating entry point consults it before touching state; a negative answer
// aborts the call with ErrUnauthorized and no writes. The verification
// mechanism behind it is not this layer's concern.
type Gate interface {
	Authorized(ctx context.Context, principal string) bool
}

// Clock supplies the ledger timestamp recorded on tickets and mints.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
