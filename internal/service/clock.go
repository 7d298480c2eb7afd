package service

import "time"

// clock matches the microsecond precision of the timestamp columns so a
// value read back compares equal to the one written.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
