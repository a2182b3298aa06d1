//go:build linux

package osprot

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeyedMir/ucx/rcache"
)

// TestLinuxCheckerDominatesOwnStack checks a real self-mapping: the current
// goroutine's stack variable lives in a region /proc/self/maps reports as
// at least readable and writable.
func TestLinuxCheckerDominatesOwnStack(t *testing.T) {
	c := NewLinuxChecker()

	var x int
	addr := uintptr(unsafe.Pointer(&x))

	ok, err := c.Dominates(addr, addr+1, rcache.ProtRead|rcache.ProtWrite)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLinuxCheckerRejectsUnmappedAddress(t *testing.T) {
	c := NewLinuxChecker()

	// Address 0 is never a valid, readable user-space mapping.
	ok, err := c.Dominates(0, 1, rcache.ProtRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewDefaultReturnsLinuxChecker(t *testing.T) {
	d := NewDefault()
	_, ok := d.(*LinuxChecker)
	assert.True(t, ok)
}
