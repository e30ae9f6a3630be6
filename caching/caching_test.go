package caching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIncrementAndReset(t *testing.T) {
	c := NewCache(time.Minute)

	assert.Equal(t, 0, c.Count("1.2.3.4"))
	assert.Equal(t, 1, c.Increment("1.2.3.4"))
	assert.Equal(t, 2, c.Increment("1.2.3.4"))
	assert.Equal(t, 1, c.Increment("5.6.7.8"))
	assert.Equal(t, 2, c.Count("1.2.3.4"))

	c.Reset("1.2.3.4")
	assert.Equal(t, 0, c.Count("1.2.3.4"))

	c.Flush()
	assert.Equal(t, 0, c.Count("5.6.7.8"))
}

func TestCounterExpires(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.Increment("k")
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, c.Count("k"))
	assert.Equal(t, 1, c.Increment("k"))
}
