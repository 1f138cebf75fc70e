package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := &Backoff{Min: 10 * time.Millisecond, Max: 40 * time.Millisecond, K: 2, Budget: 3}
	assert.Equal(t, time.Duration(0), b.Delay())
	assert.False(t, b.Spent())

	b.Failure()
	d1 := b.Delay()
	assert.True(t, d1 > 0 && d1 <= 10*time.Millisecond, "d1=%v", d1)
	b.Failure()
	d2 := b.Delay()
	assert.True(t, d2 > d1 && d2 <= 20*time.Millisecond, "d2=%v", d2)
	assert.False(t, b.Spent())

	b.Failure()
	assert.True(t, b.Spent())

	// growth is capped
	b.Failure()
	assert.True(t, b.Delay() <= 40*time.Millisecond)

	b.Reset()
	assert.Equal(t, time.Duration(0), b.Delay())
	assert.False(t, b.Spent())
}

func TestSleepYield(t *testing.T) {
	t.Parallel()

	yields := 0
	ok := SleepYield(30*time.Millisecond, 10*time.Millisecond, nil, func() { yields++ })
	assert.True(t, ok)
	assert.True(t, yields >= 2, "yields=%d", yields)

	stop := make(chan struct{})
	close(stop)
	ok = SleepYield(time.Hour, 10*time.Millisecond, stop, nil)
	assert.False(t, ok)
}
