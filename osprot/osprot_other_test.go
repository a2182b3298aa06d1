//go:build !linux

package osprot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeyedMir/ucx/rcache"
)

func TestNewDefaultIsPermissive(t *testing.T) {
	d := NewDefault()
	ok, err := d.Dominates(0, 4096, rcache.ProtRead|rcache.ProtWrite|rcache.ProtExec)
	require.NoError(t, err)
	assert.True(t, ok)
}
