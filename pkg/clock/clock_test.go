package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)

	assert.Equal(t, start, f.Now())

	f.Advance(2 * time.Minute)
	assert.Equal(t, start.Add(2*time.Minute), f.Now())
	assert.Equal(t, 2*time.Minute, f.Since(start))

	f.Set(start)
	assert.Equal(t, start, f.Now())
}

func TestReal_MovesForward(t *testing.T) {
	c := NewReal()
	before := c.Now()
	assert.False(t, c.Now().Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
}
