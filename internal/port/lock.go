package port

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock is still held by another caller after
// the acquisition wait budget has elapsed. Nothing has been persisted at that
// point, so the caller may safely retry.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Lock is a held distributed lock. Release is idempotent-intent: a failed
// release is logged by the implementation and never propagated, because the
// business outcome of the critical section is already decided.
type Lock interface {
	Release(ctx context.Context)
}

// Locker hands out named, TTL-bounded exclusive locks valid across every
// server process. For a fixed key, at most one holder exists fleet-wide at any
// instant (until its lease expires).
type Locker interface {
	Acquire(ctx context.Context, key string) (Lock, error)
}
