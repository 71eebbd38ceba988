package graph

import "context"

// mutexLocker serializes runs within one process. It is the default when no
// Locker is configured.
type mutexLocker struct {
	sem chan struct{}
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{sem: make(chan struct{}, 1)}
}

// Lock waits for the running run to finish or for ctx to end.
func (l *mutexLocker) Lock(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case l.sem <- struct{}{}:
	default:
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer func() { <-l.sem }()
	return fn(ctx)
}
