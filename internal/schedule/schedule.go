// Package schedule implements the adaptive poll scheduler: a pure function
// from observed state to the next sleep duration. It never calls the
// upstream itself; it is driven entirely by values the poller already has
// on hand or looked up from the fixture repository.
package schedule

import "time"

// ScheduleTable holds the boundary durations used by NextSleep. The zero
// value is not usable; construct one with DefaultTable.
type ScheduleTable struct {
	PausedSleep  time.Duration
	LiveSleep    time.Duration
	Beyond24h    time.Duration
	Beyond6h     time.Duration
	Beyond1h     time.Duration
	Beyond10min  time.Duration
	Imminent     time.Duration
	UnknownSleep time.Duration

	// HalftimeLead is how long into halftime the scheduler wakes the
	// poller early, and HalftimeGuard is how far ahead of that wake time
	// it backs off, per the halftime de-synchronization rule.
	HalftimeLead  time.Duration
	HalftimeGuard time.Duration
	MinSleep      time.Duration
}

// DefaultTable returns the boundary durations named in the scheduler
// design: 15s while paused or live, widening steps out to 12h once the next
// kickoff is a full day away, and 24h when no kickoff is known at all.
func DefaultTable() ScheduleTable {
	return ScheduleTable{
		PausedSleep:   15 * time.Second,
		LiveSleep:     15 * time.Second,
		Beyond24h:     12 * time.Hour,
		Beyond6h:      3 * time.Hour,
		Beyond1h:      30 * time.Minute,
		Beyond10min:   5 * time.Minute,
		Imminent:      15 * time.Second,
		UnknownSleep:  24 * time.Hour,
		HalftimeLead:  14 * time.Minute,
		HalftimeGuard: 30 * time.Second,
		MinSleep:      15 * time.Second,
	}
}

// NextSleep computes how long the poller for one topic should sleep before
// its next tick. nextKickoff is nil when no upcoming fixture is known.
// halftimeEntry, when non-nil, is the wall-clock time the broadcaster first
// observed a live fixture enter Halftime on this tick; it takes priority
// over every other rule except the paused kill switch.
func (t ScheduleTable) NextSleep(isPaused bool, liveCount int, nextKickoff *time.Time, halftimeEntry *time.Time, now time.Time) time.Duration {
	if isPaused {
		return t.PausedSleep
	}

	if halftimeEntry != nil {
		wake := halftimeEntry.Add(t.HalftimeLead).Add(-t.HalftimeGuard)
		if wake.After(now) {
			return clampMin(wake.Sub(now), t.MinSleep)
		}
	}

	if liveCount > 0 {
		return t.LiveSleep
	}

	if nextKickoff == nil {
		return t.UnknownSleep
	}

	until := nextKickoff.Sub(now)
	switch {
	case until > 24*time.Hour:
		return t.Beyond24h
	case until > 6*time.Hour:
		return t.Beyond6h
	case until > time.Hour:
		return t.Beyond1h
	case until > 10*time.Minute:
		return t.Beyond10min
	case until > 0:
		return t.Imminent
	default:
		return t.Imminent
	}
}

func clampMin(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}
