// Package eligibility implements the "at most once per window" policy shared
// by the ban-duration clock and the top-up throttle. All functions are pure.
package eligibility

import "time"

// Eligible reports whether an action throttled to once per window may run
// again at now, given the time of the previous action. A zero window means
// the action is never throttled.
func Eligible(lastActionAt time.Time, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return true
	}
	return !now.Before(lastActionAt.Add(window))
}

// NextAllowedAt returns the earliest instant the action becomes permissible
// again. With a zero window it returns lastActionAt (always permissible).
func NextAllowedAt(lastActionAt time.Time, window time.Duration) time.Time {
	if window <= 0 {
		return lastActionAt
	}
	return lastActionAt.Add(window)
}

// ExpiresAt computes a ban's expiry instant from its creation time and
// duration. A non-positive duration means the ban never expires by time
// (permanent bans and warnings), reported as nil.
func ExpiresAt(createdAt time.Time, durationHours int) *time.Time {
	if durationHours <= 0 {
		return nil
	}
	t := createdAt.Add(time.Duration(durationHours) * time.Hour)
	return &t
}
