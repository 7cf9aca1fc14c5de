package timer

import (
	"sync/atomic"
	"time"
)

// Time contains the unix-time in milliseconds updated every [Resolution] milliseconds
var Time = new(atomic.Int64)

// Now returns the coarse current time. It's used to stamp pending messages, where a
// precision of [Resolution] is more than enough.
func Now() time.Time {
	millis := Time.Load()
	return time.UnixMilli(millis)
}

// Since returns the coarse time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// Resolution is the frequency at which time is updated.
const Resolution = 100 * time.Millisecond

func init() {
	// there is no guarantee that the goroutine will be started immediately. If it won't,
	// some rapid usage of the timer will result in zero-time, which isn't great actually
	Time.Store(time.Now().UnixMilli())

	go func() {
		for {
			time.Sleep(Resolution)
			Time.Store(time.Now().UnixMilli())
		}
	}()
}
