package workerpool

import (
	"context"
	"errors"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/l10n/config"
)

var ErrWorkerPoolNotConfigured = errors.New("worker pool is not configured")

type manager struct {
	pool         WorkerPool
	shutdownOnce sync.Once
}

// NewManager builds the worker pool from configuration, then applies opts on top.
func NewManager(
	ctx context.Context,
	cfg config.ConfigurationWorkerPool,
	opts ...Option,
) (Manager, error) {
	poolOpts := defaultWorkerPoolOpts(cfg, util.Log(ctx))

	for _, opt := range opts {
		opt(poolOpts)
	}

	pool, err := setupWorkerPool(ctx, poolOpts)
	if err != nil {
		return nil, err
	}

	return &manager{pool: pool}, nil
}

func (m *manager) GetPool() (WorkerPool, error) {
	if m.pool == nil {
		return nil, ErrWorkerPoolNotConfigured
	}
	return m.pool, nil
}

func (m *manager) Submit(ctx context.Context, task func()) error {
	pool, err := m.GetPool()
	if err != nil {
		return err
	}
	return pool.Submit(ctx, task)
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m.pool == nil {
		return nil
	}

	m.shutdownOnce.Do(func() {
		util.Log(ctx).Info("shutting down worker pool")
		m.pool.Shutdown()
	})
	return nil
}
