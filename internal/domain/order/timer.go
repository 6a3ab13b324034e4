package order

import "time"

// Remaining returns the time left until the fulfillment deadline, clamped at
// zero. Zero is also returned when the timer has not started.
func (o *Order) Remaining(now time.Time) time.Duration {
	if o.DeadlineDate == nil {
		return 0
	}
	remaining := o.DeadlineDate.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DeadlineExpired reports whether the fulfillment deadline has passed.
// Expiry is informational only; it never forces a transition.
func (o *Order) DeadlineExpired(now time.Time) bool {
	if o.DeadlineDate == nil {
		return false
	}
	return !now.Before(*o.DeadlineDate)
}
