package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func TestGetLiveFixturesDecodesAndNormalizesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-apisports-key"); got != "secret" {
			t.Fatalf("expected API key header, got %q", got)
		}
		if r.URL.Query().Get("live") != "all" {
			t.Fatalf("expected live=all query param")
		}
		writeJSON(w, `{"response": [{
			"fixture": {"id": 1001, "referee": "A. Ref", "venue": {"name": "Stadium"}, "date": "2026-01-14T18:00:00Z", "status": {"short": "1H", "long": "First Half", "elapsed": 23}},
			"league": {"id": 6, "name": "AFCON", "season": 2025},
			"teams": {"home": {"id": 1, "name": "Home FC", "logo": "h.png"}, "away": {"id": 2, "name": "Away FC", "logo": "a.png"}},
			"goals": {"home": 1, "away": 0},
			"score": {"halftime": {"home": 0, "away": 0}, "fulltime": {"home": null, "away": null}}
		}]}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	fixtures, err := c.GetLiveFixtures(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	f := fixtures[0]
	if f.APIFixtureID != 1001 || f.StatusShort != model.StatusFirstHalf {
		t.Fatalf("unexpected decoded fixture: %+v", f)
	}
	if f.HomeGoals == nil || *f.HomeGoals != 1 {
		t.Fatalf("expected home goals 1, got %+v", f.HomeGoals)
	}
	if f.HomeTeam.Name != "Home FC" || f.AwayTeam.Name != "Away FC" {
		t.Fatalf("unexpected team decoding: %+v", f)
	}
}

func TestGetLiveFixturesUnknownStatusSurfacesVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"response": [{
			"fixture": {"id": 1002, "date": "2026-01-14T18:00:00Z", "status": {"short": "XYZ", "long": "Weird State"}},
			"league": {"id": 6, "name": "AFCON", "season": 2025},
			"teams": {"home": {"id": 1, "name": "Home FC"}, "away": {"id": 2, "name": "Away FC"}},
			"goals": {}, "score": {}
		}]}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	fixtures, err := c.GetLiveFixtures(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixtures[0].StatusShort != model.StatusUnknown || fixtures[0].StatusLong != "Weird State" {
		t.Fatalf("expected unknown status surfaced verbatim in StatusLong, got %+v", fixtures[0])
	}
}

func TestGetFixtureEventsClassifiesKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"response": [
			{"time": {"elapsed": 23}, "team": {"id": 1}, "player": {"id": 9, "name": "Bruno F."}, "type": "Goal", "detail": "Normal Goal"},
			{"time": {"elapsed": 60}, "team": {"id": 1}, "player": {"id": 4}, "type": "Card", "detail": "Yellow Card"},
			{"time": {"elapsed": 70}, "team": {"id": 1}, "player": {"id": 5}, "type": "subst", "detail": "Substitution 1"}
		]}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	events, err := c.GetFixtureEvents(context.Background(), 1001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Kind != model.EventKindGoal || events[0].PlayerName != "Bruno F." {
		t.Fatalf("unexpected goal event: %+v", events[0])
	}
	if events[1].Kind != model.EventKindCard {
		t.Fatalf("unexpected card event: %+v", events[1])
	}
	if events[2].Kind != model.EventKindSubstitution {
		t.Fatalf("unexpected substitution event: %+v", events[2])
	}
}

func TestGetFixtureEventsExtraMinutesDoNotLeakBetweenEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"response": [
			{"time": {"elapsed": 45, "extra": 3}, "team": {"id": 1}, "player": {"id": 9}, "type": "Goal", "detail": "Normal Goal"},
			{"time": {"elapsed": 60}, "team": {"id": 1}, "player": {"id": 4}, "type": "Card", "detail": "Yellow Card"}
		]}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	events, err := c.GetFixtureEvents(context.Background(), 1001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].ExtraMinutes != 3 {
		t.Fatalf("expected first event's extra minutes to be 3, got %d", events[0].ExtraMinutes)
	}
	if events[1].ExtraMinutes != 0 {
		t.Fatalf("expected second event's extra minutes to default to 0, not leak the prior event's 3, got %d", events[1].ExtraMinutes)
	}
}

func TestGetFixtureByIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"response": []}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	if _, err := c.GetFixtureByID(context.Background(), 9999); err == nil {
		t.Fatalf("expected an error when the upstream has no fixture for the ID")
	}
}

func TestGetTransientStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "secret", Logger: logging.NewLogger()})
	if _, err := c.GetLiveFixtures(context.Background(), 6); err == nil {
		t.Fatalf("expected an error on a 5xx upstream response")
	}
}
