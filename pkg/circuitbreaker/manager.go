// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"sort"
	"sync"

	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// Manager keeps one breaker per named database target.
type Manager struct {
	breakers map[string]*CircuitBreaker
	mu       sync.RWMutex
	cfg      Config
	logger   log.Logger
	opts     []Option
}

// NewManager creates a manager whose breakers share cfg and opts.
func NewManager(cfg Config, logger log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &Manager{
		breakers: make(map[string]*CircuitBreaker),
		cfg:      cfg,
		logger:   logger,
		opts:     opts,
	}
}

// GetOrCreate returns the existing breaker for name or creates a new one.
func (m *Manager) GetOrCreate(name string) *CircuitBreaker {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists = m.breakers[name]; exists {
		return breaker
	}

	breaker = New(name, m.cfg, m.logger, m.opts...)
	m.breakers[name] = breaker

	m.logger.Infof("Created circuit breaker for database: %s", name)

	return breaker
}

// GetState returns the state of the named breaker, or UNKNOWN if it was never created.
func (m *Manager) GetState(name string) model.CircuitState {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if !exists {
		return model.CircuitUnknown
	}

	return breaker.State()
}

// IsHealthy returns false only when the named breaker is open.
func (m *Manager) IsHealthy(name string) bool {
	return m.GetState(name) != model.CircuitOpen
}

// Reset resets the named breaker if it exists.
func (m *Manager) Reset(name string) {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		breaker.Reset()
	}
}

// Snapshot returns the metrics of every breaker keyed by name.
func (m *Manager) Snapshot() map[string]model.CircuitBreakerMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]model.CircuitBreakerMetrics, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.Metrics()
	}

	return out
}

// Names returns the registered breaker names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
