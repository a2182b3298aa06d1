package rcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtContainsAndString(t *testing.T) {
	rw := ProtRead | ProtWrite
	assert.True(t, rw.Contains(ProtRead))
	assert.True(t, rw.Contains(ProtWrite))
	assert.False(t, rw.Contains(ProtExec))
	assert.True(t, rw.Contains(ProtRead|ProtWrite))

	assert.Equal(t, "rw-", rw.String())
	assert.Equal(t, "r--", ProtRead.String())
	assert.Equal(t, "---", Prot(0).String())
	assert.Equal(t, "rwx", (ProtRead | ProtWrite | ProtExec).String())
}

func TestRegionCoversAndOverlaps(t *testing.T) {
	r := &Region{Start: 100, End: 200}

	assert.True(t, r.covers(100, 200))
	assert.True(t, r.covers(150, 180))
	assert.False(t, r.covers(50, 150))
	assert.False(t, r.covers(150, 250))

	assert.True(t, r.overlaps(50, 150))
	assert.True(t, r.overlaps(150, 250))
	assert.True(t, r.overlaps(100, 200))
	assert.False(t, r.overlaps(0, 100))
	assert.False(t, r.overlaps(200, 300))
}

func TestRegionRefcount(t *testing.T) {
	r := &Region{}
	assert.EqualValues(t, 0, r.Refcount())
	r.addRef()
	r.addRef()
	assert.EqualValues(t, 2, r.Refcount())
	r.dropRef()
	assert.EqualValues(t, 1, r.Refcount())
}
