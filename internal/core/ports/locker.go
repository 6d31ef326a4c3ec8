package ports

import "context"

// Locker provides mutual exclusion keyed by an arbitrary string. Acquire
// blocks until the lock is held or ctx is done; the returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
