package rcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshotIsIndependentOfLiveCounters(t *testing.T) {
	var s stats
	s.gets = 3
	s.fastHits = 2
	s.merges = 1

	snap := s.snapshot()
	assert.EqualValues(t, 3, snap.Gets)
	assert.EqualValues(t, 2, snap.FastHits)
	assert.EqualValues(t, 1, snap.Merges)
	assert.EqualValues(t, 0, snap.Misses)

	s.gets = 100
	assert.EqualValues(t, 3, snap.Gets, "snapshot must not alias the live counters")
}
