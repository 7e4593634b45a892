package workerpool

import (
	"context"
)

// Manager owns the worker pool used for background work such as event
// forwarding and queue message handling.
type Manager interface {
	GetPool() (WorkerPool, error)
	// Submit schedules task without blocking. It fails when the pool is saturated.
	Submit(ctx context.Context, task func()) error
	Shutdown(ctx context.Context) error
}

// WorkerPool defines the common methods for worker pool operations.
// This allows the manager to hold either a single ants.Pool or an ants.MultiPool.
type WorkerPool interface {
	Submit(ctx context.Context, task func()) error
	Running() int
	Shutdown()
}
