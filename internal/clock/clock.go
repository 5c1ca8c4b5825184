// Package clock computes the daily ranking window boundary.
//
// The dedup and leaderboard caches both expire at midnight in one fixed,
// configured timezone (Asia/Seoul by default), not in the server's local time.
package clock

import "time"

// SecondsUntilMidnight returns the number of seconds from now until the next
// 00:00:00 of the following calendar day in loc.
//
// Called exactly at midnight it returns a full day (86400), never zero, so a
// window armed at the boundary always spans the day ahead.
func SecondsUntilMidnight(now time.Time, loc *time.Location) int64 {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return int64(next.Sub(local).Seconds())
}

// UntilMidnight is SecondsUntilMidnight as a time.Duration, for APIs that
// take TTLs directly.
func UntilMidnight(now time.Time, loc *time.Location) time.Duration {
	return time.Duration(SecondsUntilMidnight(now, loc)) * time.Second
}
