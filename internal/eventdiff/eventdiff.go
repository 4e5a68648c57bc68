// Package eventdiff classifies upstream deltas into the typed update kinds
// the broadcaster emits. Every function here is a stateless pure function
// over (previous, current) pairs; none of them touch the network, the
// clock, or the fixture store.
package eventdiff

import (
	"sort"
	"strings"

	"github.com/mvpaudrey/afcon-live/internal/model"
)

// HasSignificantChanges reports whether cur differs from prev in a way that
// warrants emitting an update: score, status, event-set membership, or (for
// a live fixture) elapsed minutes advancing.
func HasSignificantChanges(prev, cur model.Fixture, curEvents, prevEvents []model.FixtureEvent) bool {
	if !intPtrEqual(prev.HomeGoals, cur.HomeGoals) || !intPtrEqual(prev.AwayGoals, cur.AwayGoals) {
		return true
	}
	if prev.StatusShort != cur.StatusShort {
		return true
	}
	if len(curEvents) != len(prevEvents) {
		return true
	}
	if !eventSetsEqual(curEvents, prevEvents) {
		return true
	}
	if cur.StatusShort.IsLive() {
		if prev.ElapsedMinutes == nil || cur.ElapsedMinutes == nil {
			return false
		}
		return *cur.ElapsedMinutes-*prev.ElapsedMinutes >= 1
	}
	return false
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eventSetsEqual(a, b []model.FixtureEvent) bool {
	seen := make(map[[5]any]int, len(a))
	for _, e := range a {
		seen[e.IdentityTuple()]++
	}
	for _, e := range b {
		seen[e.IdentityTuple()]--
	}
	for _, count := range seen {
		if count != 0 {
			return false
		}
	}
	return true
}

// NewEvents returns the events in cur whose identity tuple is absent from
// prev, in cur's order. Exported so callers that need the triggering event
// for an Update don't have to re-derive it.
func NewEvents(curEvents, prevEvents []model.FixtureEvent) []model.FixtureEvent {
	return newEvents(curEvents, prevEvents)
}

func newEvents(curEvents, prevEvents []model.FixtureEvent) []model.FixtureEvent {
	prevSet := make(map[[5]any]bool, len(prevEvents))
	for _, e := range prevEvents {
		prevSet[e.IdentityTuple()] = true
	}
	var out []model.FixtureEvent
	for _, e := range curEvents {
		if !prevSet[e.IdentityTuple()] {
			out = append(out, e)
		}
	}
	return out
}

// DetectEventType classifies the delta between prev and cur into the update
// kind the broadcaster should emit. A new goal or missed-penalty event
// outranks a new card, which outranks a new substitution, which outranks a
// new VAR review; only once none of those are present does it fall back to
// a bare score or status change.
func DetectEventType(prev, cur model.Fixture, curEvents, prevEvents []model.FixtureEvent) model.UpdateKind {
	fresh := newEvents(curEvents, prevEvents)

	for _, e := range fresh {
		if e.Kind == model.EventKindGoal {
			if strings.Contains(strings.ToLower(e.Detail), "missed") {
				return model.UpdateMissedPenalty
			}
			return model.UpdateGoal
		}
	}
	for _, e := range fresh {
		if e.Kind == model.EventKindCard {
			detail := strings.ToLower(e.Detail)
			if strings.Contains(detail, "red") || strings.Contains(detail, "second yellow") {
				return model.UpdateRedCard
			}
			return model.UpdateYellowCard
		}
	}
	for _, e := range fresh {
		if e.Kind == model.EventKindSubstitution {
			return model.UpdateSubstitution
		}
	}
	for _, e := range fresh {
		if e.Kind == model.EventKindVAR {
			return model.UpdateVAR
		}
	}
	if !intPtrEqual(prev.HomeGoals, cur.HomeGoals) || !intPtrEqual(prev.AwayGoals, cur.AwayGoals) {
		return model.UpdateGoal
	}
	if prev.StatusShort != cur.StatusShort {
		return model.UpdateStatusUpdate
	}
	return model.UpdateTimeUpdate
}

// RecentEvents returns all of the match's events sorted ascending by
// elapsed+extra. The name is historical; the contract returns the full
// ordered list, not a trailing window.
func RecentEvents(events []model.FixtureEvent, currentElapsed int) []model.FixtureEvent {
	out := make([]model.FixtureEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ElapsedMinutes+out[i].ExtraMinutes < out[j].ElapsedMinutes+out[j].ExtraMinutes
	})
	return out
}

// EventsEqual reports whether a and b are the same event under the
// identifying tuple in the data model.
func EventsEqual(a, b model.FixtureEvent) bool {
	return a.IdentityTuple() == b.IdentityTuple()
}
