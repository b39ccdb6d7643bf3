package reminder

import "time"

// Lead is how long before a task deadline its reminder fires.
const Lead = 30 * time.Minute

// FireTime returns the instant a reminder for the given deadline should fire.
func FireTime(deadline time.Time) time.Time {
	return deadline.Add(-Lead)
}

// Schedulable reports whether a fire time is still in the future.
// A reminder whose window has already passed is never armed.
func Schedulable(fireAt, now time.Time) bool {
	return fireAt.After(now)
}
