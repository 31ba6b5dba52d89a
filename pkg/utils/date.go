package utils

import (
	"time"
)

// TimeNowUTC returns the current time in UTC truncated to microseconds, the
// precision PostgreSQL keeps for timestamptz columns.
func TimeNowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
