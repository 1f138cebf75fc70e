package helpers

import "time"

func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Second
}

// SleepYield waits for total in tick sized slices, calling yield
// between slices. Long uninterrupted sleeps starve the process
// watchdog, so every wait in this program goes through here.
// Returns false if stop was closed before the wait elapsed.
func SleepYield(total, tick time.Duration, stop <-chan struct{}, yield func()) bool {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	deadline := time.Now().Add(total)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return true
		}
		if left > tick {
			left = tick
		}
		select {
		case <-stop:
			return false
		case <-time.After(left):
		}
		if yield != nil {
			yield()
		}
	}
}
