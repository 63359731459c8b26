package room

// CountdownState is the lifecycle of the local answer-window timer.
type CountdownState string

const (
	CountdownIdle    CountdownState = "idle"
	CountdownRunning CountdownState = "running"
	CountdownExpired CountdownState = "expired"
)

// Countdown is the locally ticking answer-window timer. It holds no goroutine
// or clock of its own: the engine calls Tick once per elapsed second from its
// single loop, which is what keeps ticks and message merges serialized. The
// server's declared window is authoritative; this timer is display and gating
// only.
type Countdown struct {
	state     CountdownState
	total     int
	remaining int
}

// Reseed restarts the countdown at a fresh window, discarding whatever state
// the previous timer was in.
func (c *Countdown) Reseed(seconds int) {
	c.total = seconds
	c.remaining = seconds
	if seconds > 0 {
		c.state = CountdownRunning
	} else {
		c.state = CountdownExpired
	}
}

// Tick advances the timer by one second. Floored at zero; expiry is sticky
// until the next Reseed.
func (c *Countdown) Tick() {
	if c.state != CountdownRunning {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = CountdownExpired
	}
}

// Halt stops the countdown at zero, used when the server closes the answer
// window before the local timer got there.
func (c *Countdown) Halt() {
	c.remaining = 0
	if c.state != CountdownIdle {
		c.state = CountdownExpired
	}
}

func (c *Countdown) State() CountdownState { return c.state }
func (c *Countdown) Remaining() int        { return c.remaining }
func (c *Countdown) Total() int            { return c.total }

// Fraction reports remaining/total for progress display.
func (c *Countdown) Fraction() float64 {
	if c.total <= 0 {
		return 0
	}
	return float64(c.remaining) / float64(c.total)
}
