package config

import (
	"reflect"
	"testing"
)

func TestParseLeagueSpecsParsesIDSeasonName(t *testing.T) {
	got := ParseLeagueSpecs("6:2025:Africa Cup of Nations, 4:2026:World Cup")
	want := []LeagueSpec{
		{LeagueID: 6, Season: 2025, Name: "Africa Cup of Nations"},
		{LeagueID: 4, Season: 2026, Name: "World Cup"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseLeagueSpecsAllowsMissingName(t *testing.T) {
	got := ParseLeagueSpecs("6:2025")
	want := []LeagueSpec{{LeagueID: 6, Season: 2025, Name: ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseLeagueSpecsSkipsMalformedEntries(t *testing.T) {
	got := ParseLeagueSpecs("not-a-number:2025, 6:not-a-season, , 6:2025:Valid")
	want := []LeagueSpec{{LeagueID: 6, Season: 2025, Name: "Valid"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseLeagueSpecsEmptyInput(t *testing.T) {
	if got := ParseLeagueSpecs(""); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}
