package hal

import "time"

type hostClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock counting milliseconds since its creation.
// time.Since reads the monotonic clock, so wall-clock jumps do not leak in.
func NewMonotonicClock() Clock {
	return &hostClock{start: time.Now()}
}

func (c *hostClock) Now() float64 {
	return float64(time.Since(c.start)) / float64(time.Millisecond)
}
