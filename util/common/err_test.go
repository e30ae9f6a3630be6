package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	a := errors.New("a")
	b := errors.New("b")
	err := Combine(a, nil, b)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}

func TestRecover(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Recover("job")
		panic("boom")
	})
}

func TestNewErrorf(t *testing.T) {
	assert.EqualError(t, NewErrorf("user %s not found", "x"), "user x not found")
	assert.EqualError(t, NewError("missing ", 2, " values"), "missing 2 values")
}
