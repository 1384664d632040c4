// Package lock provides process-external mutual exclusion keyed by resource.
//
// A Coordinator hands out a Token per successful acquisition. Release only
// removes the lock when the token still matches, so an attempt whose lock
// expired cannot release a lock acquired later by someone else.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a crashed holder can block a resource.
const DefaultTTL = 10 * time.Second

var (
	// ErrBusy is returned by Acquire when another token holds the key.
	ErrBusy = errors.New("lock is held by another owner")
	// ErrNotHeld is returned by Release when the key expired or belongs to another token.
	ErrNotHeld = errors.New("lock is not held by this token")
)

// Token identifies one acquisition attempt.
type Token string

// Coordinator acquires and releases locks. Acquire never blocks waiting for a holder.
type Coordinator interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Token, error)
	Release(ctx context.Context, key string, token Token) error
}

func newToken(owner string) Token {
	return Token(owner + ":" + uuid.NewString())
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
