package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// force timezone to be eastern because every tracked store is in
// FL/GA and the week-of-month math has to agree with store-local
// dates no matter where the collector happens to run.
func Now() time.Time {
	return time.Now().In(Location)
}

// the current eastern calendar date truncated to midnight, this is
// the observation date stamped on every collected record.
func Today() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}
