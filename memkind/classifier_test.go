// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memkind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaultsToHost(t *testing.T) {
	c := New()
	kind, err := c.Classify(context.Background(), 0x1000, 0x2000)
	require.NoError(t, err)
	assert.True(t, kind.Equal(Host))
}

func TestClassifyMatchesDeviceRange(t *testing.T) {
	c := New()
	want := c.AddDeviceRange(0x1000, 0x2000, "gpu0")

	got, err := c.Classify(context.Background(), 0x1000, 0x2000)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	// A sub-range still classifies as the device.
	got, err = c.Classify(context.Background(), 0x1400, 0x1800)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	// A range only partially overlapping the device range falls back to
	// host: Classify requires full containment.
	got, err = c.Classify(context.Background(), 0x1800, 0x2800)
	require.NoError(t, err)
	assert.True(t, got.Equal(Host))
}

func TestRemoveDeviceRangeRevertsToHost(t *testing.T) {
	c := New()
	c.AddDeviceRange(0x1000, 0x2000, "gpu0")
	c.RemoveDeviceRange(0x1000, 0x2000)

	kind, err := c.Classify(context.Background(), 0x1000, 0x2000)
	require.NoError(t, err)
	assert.True(t, kind.Equal(Host))
}

func TestNewDeviceKindNeverReusesID(t *testing.T) {
	a := NewDeviceKind("gpu0")
	b := NewDeviceKind("gpu0")
	assert.False(t, a.Equal(b), "two allocations of the same family must never compare equal")
}

func TestHostKindEqualAcrossInstances(t *testing.T) {
	assert.True(t, Host.Equal(hostKind{}))
	assert.False(t, Host.Equal(NewDeviceKind("gpu0")))
}
