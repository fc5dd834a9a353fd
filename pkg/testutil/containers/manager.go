//go:build integration

// Package containers starts the external services used by integration suites.
// Each container is started once per test binary and shared; Ryuk removes them
// when the process exits.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"
)

// Manager lazily starts and caches containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
	redpanda *RedpandaContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

const startTimeout = 2 * time.Minute

func (m *Manager) GetPostgres(t testing.TB) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		c, err := startPostgres(ctx)
		if err != nil {
			t.Fatalf("postgres container: %v", err)
		}
		m.postgres = c
	}
	return m.postgres
}

func (m *Manager) GetRedis(t testing.TB) *RedisContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		c, err := startRedis(ctx)
		if err != nil {
			t.Fatalf("redis container: %v", err)
		}
		m.redis = c
	}
	return m.redis
}

func (m *Manager) GetRedpanda(t testing.TB) *RedpandaContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redpanda == nil {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		c, err := startRedpanda(ctx)
		if err != nil {
			t.Fatalf("redpanda container: %v", err)
		}
		m.redpanda = c
	}
	return m.redpanda
}
