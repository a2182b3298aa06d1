package rcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusStringAndError(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "no-resource", ErrNoResource.String())
	assert.Equal(t, "io-error", ErrIOError.String())
	assert.Equal(t, "invalid-argument", ErrInvalidArgument.String())

	assert.Equal(t, ErrIOError.String(), ErrIOError.Error())

	unknown := Status(99)
	assert.Equal(t, "rcache.Status(99)", unknown.String())
}

func TestStatusOk(t *testing.T) {
	assert.True(t, StatusOK.Ok())
	assert.False(t, ErrIOError.Ok())
	var zero Status
	assert.True(t, zero.Ok())
}
