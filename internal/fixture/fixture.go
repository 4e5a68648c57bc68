// Package fixture implements the authoritative fixture store: the upsert
// path, the scheduling lookups the poller and the standings refresher
// depend on, and the retention sweep.
package fixture

import (
	"context"
	"time"

	"github.com/mvpaudrey/afcon-live/internal/model"
)

// Window is the earliest/latest kickoff pair for a calendar day's fixtures.
type Window struct {
	Earliest time.Time
	Latest   time.Time
}

// Repository is the contract the poller, the standings refresher, and the
// gRPC edge all depend on. The Postgres-backed implementation lives in
// postgres.go; tests use the in-memory implementation in memory.go.
type Repository interface {
	Upsert(ctx context.Context, f model.Fixture) error
	UpsertBatch(ctx context.Context, fs []model.Fixture) (succeeded int, err error)

	GetNextUpcomingTimestamp(ctx context.Context, leagueID int64, season int) (*time.Time, error)
	GetFixturesAtTimestamp(ctx context.Context, leagueID int64, season int, instant time.Time) ([]model.Fixture, error)
	GetDailyFixtureWindow(ctx context.Context, leagueID int64, season int, referenceDate time.Time) (*Window, error)
	GetFixturesForDate(ctx context.Context, leagueID int64, season int, date time.Time) ([]model.Fixture, error)

	HasFixtures(ctx context.Context, leagueID int64, season int) (bool, error)
	HasLiveMatches(ctx context.Context, leagueID int64, season int) (bool, error)

	DeleteFinishedFixtures(ctx context.Context, olderThan time.Time) (deleted int, err error)
}

// dayBounds returns the [start, end) UTC calendar-day bracket containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
