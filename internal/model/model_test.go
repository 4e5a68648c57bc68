package model

import "testing"

func TestStatusClassification(t *testing.T) {
	if !StatusFirstHalf.IsLive() || StatusFirstHalf.IsPreLive() || StatusFirstHalf.IsTerminal() {
		t.Fatalf("expected FirstHalf to be live only")
	}
	if !StatusNotStarted.IsPreLive() || StatusNotStarted.IsLive() || StatusNotStarted.IsTerminal() {
		t.Fatalf("expected NotStarted to be pre-live only")
	}
	if !StatusFullTime.IsTerminal() || StatusFullTime.IsLive() || StatusFullTime.IsPreLive() {
		t.Fatalf("expected FullTime to be terminal only")
	}
	if StatusUnknown.IsLive() || StatusUnknown.IsPreLive() || StatusUnknown.IsTerminal() {
		t.Fatalf("expected UNKNOWN to fall outside every closed subset")
	}
}

func TestFixtureEventIdentityTuple(t *testing.T) {
	a := FixtureEvent{ElapsedMinutes: 23, ExtraMinutes: 0, Kind: EventKindGoal, Detail: "Normal Goal", PlayerID: 9}
	b := FixtureEvent{ElapsedMinutes: 23, ExtraMinutes: 0, Kind: EventKindGoal, Detail: "Normal Goal", PlayerID: 9, PlayerName: "different name, same identity"}

	if a.IdentityTuple() != b.IdentityTuple() {
		t.Fatalf("expected identity tuple to ignore PlayerName")
	}

	c := b
	c.PlayerID = 10
	if a.IdentityTuple() == c.IdentityTuple() {
		t.Fatalf("expected a different playerID to change the identity tuple")
	}
}
