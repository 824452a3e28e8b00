package bluez

import "time"

// Clock supplies the current time for deadline arithmetic.
// Only differences between readings are used, so a monotonic source is expected.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now, which carries a monotonic clock reading.
func (systemClock) Now() time.Time {
	return time.Now()
}
