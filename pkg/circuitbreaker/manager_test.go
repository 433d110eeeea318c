// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"testing"

	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetOrCreateReturnsSameInstance(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig(), &log.NoneLogger{})

	a := m.GetOrCreate("primary")
	b := m.GetOrCreate("primary")

	assert.Same(t, a, b)
	assert.Equal(t, 3, a.Config().FailureThreshold)
}

func TestManager_StateAndHealth(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig(), nil)

	assert.Equal(t, model.CircuitUnknown, m.GetState("missing"))
	assert.True(t, m.IsHealthy("missing"))

	cb := m.GetOrCreate("replica")
	require.NoError(t, cb.ForceState(model.CircuitOpen))

	assert.Equal(t, model.CircuitOpen, m.GetState("replica"))
	assert.False(t, m.IsHealthy("replica"))

	m.Reset("replica")
	assert.True(t, m.IsHealthy("replica"))

	m.Reset("missing")
}

func TestManager_SnapshotAndNames(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig(), nil)
	m.GetOrCreate("b")
	m.GetOrCreate("a")

	assert.Equal(t, []string{"a", "b"}, m.Names())

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.CircuitClosed, snap["a"].State)
}
