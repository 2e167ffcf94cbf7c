package timer

import "fmt"

// Countdown is a minutes:seconds display value.
type Countdown struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// FromMinutes returns a countdown starting at m:00.
func FromMinutes(m int) Countdown {
	return Countdown{Minutes: m}
}

// Tick removes one second, borrowing a minute when seconds are 0. It
// reports whether the countdown reached 00:00.
func (c Countdown) Tick() (Countdown, bool) {
	switch {
	case c.Seconds > 0:
		c.Seconds--
	case c.Minutes > 0:
		c.Minutes--
		c.Seconds = 59
	}
	return c, c.Zero()
}

// Zero reports whether the countdown shows 00:00.
func (c Countdown) Zero() bool {
	return c.Minutes <= 0 && c.Seconds <= 0
}

// TotalSeconds returns the remaining time in seconds.
func (c Countdown) TotalSeconds() int {
	return c.Minutes*60 + c.Seconds
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d", c.Minutes, c.Seconds)
}
