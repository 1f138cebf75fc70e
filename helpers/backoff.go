package helpers

import (
	"sync/atomic"
	"time"

	"github.com/temoto/atomic_clock"
)

// Limited exponential backoff with an explicit retry budget.
// First delay is always 0. Failure() grows the next delay by K and
// spends one attempt from the budget. Budget=0 means unlimited.
type Backoff struct {
	next     int64 // atomic align
	attempts int32
	last     atomic_clock.Clock

	Min    time.Duration
	Max    time.Duration
	K      float32
	Budget int32
}

// Remaining delay before the next attempt is allowed, 0 if now is fine.
// Use scenario:
// for {
//   time.Sleep(backoff.Delay())
//   err := op()
//   backoff.Update(err==nil)
// }
func (b *Backoff) Delay() time.Duration {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if next == 0 {
		return 0
	}
	if next < b.Min {
		next = b.Min
	}
	if next > b.Max {
		next = b.Max
	}
	since := atomic_clock.Since(&b.last)
	if since >= next {
		return 0
	}
	return next - since
}

func (b *Backoff) Update(success bool) {
	if success {
		b.Reset()
	} else {
		b.Failure()
	}
}

// Grows next Delay(), spends one attempt.
func (b *Backoff) Failure() {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if next == 0 {
		next = b.Min
	} else {
		next = time.Duration(float32(next) * b.K)
		if next > b.Max {
			next = b.Max
		}
	}
	b.last.SetNow()
	atomic.StoreInt64(&b.next, int64(next))
	atomic.AddInt32(&b.attempts, 1)
}

// Budget left, false when attempts are exhausted.
func (b *Backoff) Spent() bool {
	if b.Budget == 0 {
		return false
	}
	return atomic.LoadInt32(&b.attempts) >= b.Budget
}

func (b *Backoff) Reset() {
	b.last.SetNow()
	atomic.StoreInt64(&b.next, 0)
	atomic.StoreInt32(&b.attempts, 0)
}
