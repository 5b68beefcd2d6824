package debug

import "time"

// FPSCounter measures frames per second over one-second windows.
type FPSCounter struct {
	start  time.Time
	frames int
}

// Tick records a frame finished at now. The first call only starts the
// window. Once at least a second has passed it returns the measured rate and
// starts a new window.
func (c *FPSCounter) Tick(now time.Time) (fps float64, ok bool) {
	if c.start.IsZero() {
		c.start = now
		return 0, false
	}
	c.frames++

	elapsed := now.Sub(c.start)
	if elapsed < time.Second {
		return 0, false
	}
	fps = float64(c.frames) / elapsed.Seconds()
	c.frames = 0
	c.start = now
	return fps, true
}
