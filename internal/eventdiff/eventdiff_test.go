package eventdiff

import (
	"testing"

	"github.com/mvpaudrey/afcon-live/internal/model"
)

func intp(i int) *int { return &i }

func baseFixture() model.Fixture {
	return model.Fixture{
		APIFixtureID:   1001,
		StatusShort:    model.StatusFirstHalf,
		ElapsedMinutes: intp(20),
		HomeGoals:      intp(0),
		AwayGoals:      intp(0),
	}
}

func TestHasSignificantChangesScoreChange(t *testing.T) {
	prev := baseFixture()
	cur := prev
	cur.HomeGoals = intp(1)

	if !HasSignificantChanges(prev, cur, nil, nil) {
		t.Fatalf("expected score change to be significant")
	}
}

func TestHasSignificantChangesStatusChange(t *testing.T) {
	prev := baseFixture()
	cur := prev
	cur.StatusShort = model.StatusHalftime

	if !HasSignificantChanges(prev, cur, nil, nil) {
		t.Fatalf("expected status change to be significant")
	}
}

func TestHasSignificantChangesEventSetDiffers(t *testing.T) {
	prev := baseFixture()
	cur := prev
	goal := model.FixtureEvent{ElapsedMinutes: 23, Kind: model.EventKindGoal, Detail: "Normal Goal", PlayerID: 9}

	if !HasSignificantChanges(prev, cur, []model.FixtureEvent{goal}, nil) {
		t.Fatalf("expected new event to be significant")
	}
}

func TestHasSignificantChangesElapsedAdvancesWhileLive(t *testing.T) {
	prev := baseFixture()
	cur := prev
	cur.ElapsedMinutes = intp(21)

	if !HasSignificantChanges(prev, cur, nil, nil) {
		t.Fatalf("expected elapsed advance on a live fixture to be significant")
	}
}

func TestHasSignificantChangesNoChange(t *testing.T) {
	prev := baseFixture()
	cur := prev

	if HasSignificantChanges(prev, cur, nil, nil) {
		t.Fatalf("expected identical state to be insignificant")
	}
}

func TestHasSignificantChangesNotLiveElapsedIgnored(t *testing.T) {
	prev := baseFixture()
	prev.StatusShort = model.StatusFullTime
	cur := prev
	cur.ElapsedMinutes = intp(25)

	if HasSignificantChanges(prev, cur, nil, nil) {
		t.Fatalf("elapsed minutes drift on a terminal fixture should not be significant")
	}
}

func TestDetectEventTypeGoalOutranksEverything(t *testing.T) {
	prev := baseFixture()
	cur := prev
	cur.HomeGoals = intp(1)

	events := []model.FixtureEvent{
		{ElapsedMinutes: 23, Kind: model.EventKindGoal, Detail: "Normal Goal", PlayerID: 9},
		{ElapsedMinutes: 24, Kind: model.EventKindCard, Detail: "Yellow Card", PlayerID: 4},
	}

	if got := DetectEventType(prev, cur, events, nil); got != model.UpdateGoal {
		t.Fatalf("expected Goal, got %v", got)
	}
}

func TestDetectEventTypeMissedPenalty(t *testing.T) {
	prev := baseFixture()
	cur := prev
	events := []model.FixtureEvent{
		{ElapsedMinutes: 30, Kind: model.EventKindGoal, Detail: "Missed Penalty", PlayerID: 9},
	}

	if got := DetectEventType(prev, cur, events, nil); got != model.UpdateMissedPenalty {
		t.Fatalf("expected MissedPenalty, got %v", got)
	}
}

func TestDetectEventTypeRedCard(t *testing.T) {
	prev := baseFixture()
	cur := prev
	events := []model.FixtureEvent{
		{ElapsedMinutes: 30, Kind: model.EventKindCard, Detail: "Second Yellow card", PlayerID: 4},
	}

	if got := DetectEventType(prev, cur, events, nil); got != model.UpdateRedCard {
		t.Fatalf("expected RedCard for second yellow, got %v", got)
	}
}

func TestDetectEventTypeYellowCard(t *testing.T) {
	prev := baseFixture()
	cur := prev
	events := []model.FixtureEvent{
		{ElapsedMinutes: 30, Kind: model.EventKindCard, Detail: "Yellow Card", PlayerID: 4},
	}

	if got := DetectEventType(prev, cur, events, nil); got != model.UpdateYellowCard {
		t.Fatalf("expected YellowCard, got %v", got)
	}
}

func TestDetectEventTypeSubstitutionAndVAR(t *testing.T) {
	prev := baseFixture()
	cur := prev

	subEvents := []model.FixtureEvent{{ElapsedMinutes: 60, Kind: model.EventKindSubstitution, PlayerID: 5}}
	if got := DetectEventType(prev, cur, subEvents, nil); got != model.UpdateSubstitution {
		t.Fatalf("expected Substitution, got %v", got)
	}

	varEvents := []model.FixtureEvent{{ElapsedMinutes: 60, Kind: model.EventKindVAR, PlayerID: 5}}
	if got := DetectEventType(prev, cur, varEvents, nil); got != model.UpdateVAR {
		t.Fatalf("expected VAR, got %v", got)
	}
}

func TestDetectEventTypeFallbackScoreThenStatusThenTime(t *testing.T) {
	prev := baseFixture()

	scoreChanged := prev
	scoreChanged.HomeGoals = intp(1)
	if got := DetectEventType(prev, scoreChanged, nil, nil); got != model.UpdateGoal {
		t.Fatalf("expected fallback Goal on bare score change, got %v", got)
	}

	statusChanged := prev
	statusChanged.StatusShort = model.StatusHalftime
	if got := DetectEventType(prev, statusChanged, nil, nil); got != model.UpdateStatusUpdate {
		t.Fatalf("expected StatusUpdate, got %v", got)
	}

	if got := DetectEventType(prev, prev, nil, nil); got != model.UpdateTimeUpdate {
		t.Fatalf("expected TimeUpdate fallback, got %v", got)
	}
}

func TestRecentEventsSortsAscendingByElapsedPlusExtra(t *testing.T) {
	events := []model.FixtureEvent{
		{ElapsedMinutes: 90, ExtraMinutes: 3},
		{ElapsedMinutes: 10, ExtraMinutes: 0},
		{ElapsedMinutes: 45, ExtraMinutes: 1},
	}

	out := RecentEvents(events, 90)
	if len(out) != 3 || out[0].ElapsedMinutes != 10 || out[1].ElapsedMinutes != 45 || out[2].ElapsedMinutes != 90 {
		t.Fatalf("expected ascending order by elapsed+extra, got %+v", out)
	}
	// RecentEvents must not mutate the caller's slice.
	if events[0].ElapsedMinutes != 90 {
		t.Fatalf("expected input slice untouched")
	}
}

func TestEventsEqualReflexiveSymmetricTransitive(t *testing.T) {
	a := model.FixtureEvent{ElapsedMinutes: 23, ExtraMinutes: 0, Kind: model.EventKindGoal, Detail: "Normal Goal", PlayerID: 9}
	b := a
	c := a

	if !EventsEqual(a, a) {
		t.Fatalf("expected reflexive equality")
	}
	if !EventsEqual(a, b) || !EventsEqual(b, a) {
		t.Fatalf("expected symmetric equality")
	}
	if !EventsEqual(a, b) || !EventsEqual(b, c) || !EventsEqual(a, c) {
		t.Fatalf("expected transitive equality")
	}

	d := a
	d.PlayerID = 10
	if EventsEqual(a, d) {
		t.Fatalf("expected different playerID to break equality")
	}
}

func TestNewEventsReturnsOnlyUnseenByIdentityTuple(t *testing.T) {
	prev := []model.FixtureEvent{
		{ElapsedMinutes: 10, Kind: model.EventKindGoal, Detail: "Normal Goal", PlayerID: 1},
	}
	cur := []model.FixtureEvent{
		prev[0],
		{ElapsedMinutes: 55, Kind: model.EventKindCard, Detail: "Yellow Card", PlayerID: 2},
	}

	fresh := NewEvents(cur, prev)
	if len(fresh) != 1 || fresh[0].PlayerID != 2 {
		t.Fatalf("expected exactly the new card event, got %+v", fresh)
	}
}
