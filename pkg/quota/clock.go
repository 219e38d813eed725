package quota

import "time"

// Clock supplies the current time. It is injected into the Policy so that
// period rollover behavior can be exercised in tests without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Window is one accounting period. Start is inclusive, End is exclusive;
// the counter for a key logically resets to zero at End.
type Window struct {
	Start time.Time
	End   time.Time
}

// windowFor computes the accounting window containing now. Boundaries are
// anchored at midnight in loc and repeat every period, so all instances
// sharing the same configuration agree on the window regardless of when
// each instance started.
func windowFor(now time.Time, loc *time.Location, period time.Duration) Window {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	elapsed := local.Sub(midnight)
	start := midnight.Add(elapsed.Truncate(period))
	return Window{Start: start, End: start.Add(period)}
}
