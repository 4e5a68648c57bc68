package fixture

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mvpaudrey/afcon-live/internal/apierrors"
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/pkg/database"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

// PostgresRepository is the production Repository: plain database/sql +
// lib/pq, no ORM, idempotent upserts via ON CONFLICT.
type PostgresRepository struct {
	db     database.PostgresConn
	logger logging.Logger
}

// NewPostgresRepository wraps an already-connected pool.
func NewPostgresRepository(db database.PostgresConn, logger logging.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

var _ Repository = (*PostgresRepository)(nil)

// Schema is the DDL for the fixtures table. Callers run this once during
// startup (or via an external migration tool); it is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS fixtures (
	api_fixture_id   BIGINT PRIMARY KEY,
	league_id        BIGINT NOT NULL,
	season           INT NOT NULL,
	competition      TEXT NOT NULL,
	kickoff_instant  TIMESTAMPTZ NOT NULL,
	status_short     TEXT NOT NULL,
	status_long      TEXT NOT NULL,
	elapsed_minutes  INT,
	extra_minutes    INT,
	home_team_id     BIGINT NOT NULL,
	home_team_name   TEXT NOT NULL,
	home_team_logo   TEXT NOT NULL DEFAULT '',
	home_team_winner BOOLEAN,
	away_team_id     BIGINT NOT NULL,
	away_team_name   TEXT NOT NULL,
	away_team_logo   TEXT NOT NULL DEFAULT '',
	away_team_winner BOOLEAN,
	home_goals       INT,
	away_goals       INT,
	halftime_home    INT,
	halftime_away    INT,
	fulltime_home    INT,
	fulltime_away    INT,
	venue            TEXT NOT NULL DEFAULT '',
	referee          TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fixtures_league_season ON fixtures (league_id, season);
CREATE INDEX IF NOT EXISTS idx_fixtures_kickoff ON fixtures (league_id, season, kickoff_instant);
`

var terminalStatusValues = []string{
	string(model.StatusFullTime), string(model.StatusAfterExtraTime), string(model.StatusAfterPenalties),
	string(model.StatusPostponed), string(model.StatusCancelled), string(model.StatusAbandoned),
	string(model.StatusTechnicalLoss), string(model.StatusWalkOver),
}

var liveStatusValues = []string{
	string(model.StatusFirstHalf), string(model.StatusHalftime), string(model.StatusSecondHalf),
	string(model.StatusExtraTime), string(model.StatusBreakTime), string(model.StatusPenaltyShootout),
	string(model.StatusLiveGeneric), string(model.StatusSuspended), string(model.StatusInterrupted),
}

var preLiveStatusValues = []string{
	string(model.StatusNotStarted), string(model.StatusTimeToBeDefined),
}

// Upsert inserts the fixture if apiFixtureID is unknown, or updates its
// mutable fields otherwise. A terminal stored status is never overwritten
// by a live one, and the kickoff freezes once the fixture leaves the
// pre-live states.
func (r *PostgresRepository) Upsert(ctx context.Context, f model.Fixture) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixtures (
			api_fixture_id, league_id, season, competition, kickoff_instant,
			status_short, status_long, elapsed_minutes, extra_minutes,
			home_team_id, home_team_name, home_team_logo, home_team_winner,
			away_team_id, away_team_name, away_team_logo, away_team_winner,
			home_goals, away_goals, halftime_home, halftime_away,
			fulltime_home, fulltime_away, venue, referee, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25, NOW()
		)
		ON CONFLICT (api_fixture_id) DO UPDATE SET
			kickoff_instant = CASE WHEN fixtures.status_short = ANY($27) THEN EXCLUDED.kickoff_instant ELSE fixtures.kickoff_instant END,
			status_short    = CASE WHEN fixtures.status_short = ANY($26) THEN fixtures.status_short ELSE EXCLUDED.status_short END,
			status_long     = CASE WHEN fixtures.status_short = ANY($26) THEN fixtures.status_long ELSE EXCLUDED.status_long END,
			elapsed_minutes = CASE WHEN fixtures.status_short = ANY($26) THEN fixtures.elapsed_minutes ELSE EXCLUDED.elapsed_minutes END,
			extra_minutes   = CASE WHEN fixtures.status_short = ANY($26) THEN fixtures.extra_minutes ELSE EXCLUDED.extra_minutes END,
			home_team_winner = EXCLUDED.home_team_winner,
			away_team_winner = EXCLUDED.away_team_winner,
			home_goals      = EXCLUDED.home_goals,
			away_goals      = EXCLUDED.away_goals,
			halftime_home   = EXCLUDED.halftime_home,
			halftime_away   = EXCLUDED.halftime_away,
			fulltime_home   = EXCLUDED.fulltime_home,
			fulltime_away   = EXCLUDED.fulltime_away,
			venue           = EXCLUDED.venue,
			referee         = EXCLUDED.referee,
			updated_at      = NOW()
	`,
		f.APIFixtureID, f.LeagueID, f.Season, f.Competition, f.KickoffInstant,
		string(f.StatusShort), f.StatusLong, f.ElapsedMinutes, f.ExtraMinutes,
		f.HomeTeam.ID, f.HomeTeam.Name, f.HomeTeam.Logo, f.HomeTeam.Winner,
		f.AwayTeam.ID, f.AwayTeam.Name, f.AwayTeam.Logo, f.AwayTeam.Winner,
		f.HomeGoals, f.AwayGoals, f.HalftimeHome, f.HalftimeAway,
		f.FulltimeHome, f.FulltimeAway, f.Venue, f.Referee,
		pq.Array(terminalStatusValues), pq.Array(preLiveStatusValues),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.logger.WithFields(logging.Fields{"api_fixture_id": f.APIFixtureID}).Error("fixture upsert hit a uniqueness violation")
			return apierrors.Wrap(apierrors.KindRepositoryIntegrity, apierrors.ErrRepositoryIntegrity)
		}
		return apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("upsert fixture %d: %w", f.APIFixtureID, err))
	}
	return nil
}

// UpsertBatch runs sequential, non-atomic upserts and reports how many
// succeeded before returning (possibly nil) error from the last failure.
func (r *PostgresRepository) UpsertBatch(ctx context.Context, fs []model.Fixture) (int, error) {
	succeeded := 0
	var lastErr error
	for _, f := range fs {
		if err := r.Upsert(ctx, f); err != nil {
			lastErr = err
			continue
		}
		succeeded++
	}
	return succeeded, lastErr
}

func (r *PostgresRepository) GetNextUpcomingTimestamp(ctx context.Context, leagueID int64, season int) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT kickoff_instant FROM fixtures
		WHERE league_id = $1 AND season = $2
		  AND status_short IN ($3, $4)
		  AND kickoff_instant > NOW()
		ORDER BY kickoff_instant ASC
		LIMIT 1
	`, leagueID, season, string(model.StatusNotStarted), string(model.StatusTimeToBeDefined)).Scan(&t)
	if err == database.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("next upcoming timestamp: %w", err))
	}
	return &t, nil
}

func (r *PostgresRepository) GetFixturesAtTimestamp(ctx context.Context, leagueID int64, season int, instant time.Time) ([]model.Fixture, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fixtureColumns+` FROM fixtures
		WHERE league_id = $1 AND season = $2 AND kickoff_instant = $3
		ORDER BY api_fixture_id ASC
	`, leagueID, season, instant)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("fixtures at timestamp: %w", err))
	}
	defer rows.Close()
	return scanFixtures(rows)
}

func (r *PostgresRepository) GetDailyFixtureWindow(ctx context.Context, leagueID int64, season int, referenceDate time.Time) (*Window, error) {
	start, end := dayBounds(referenceDate)
	var earliest, latest sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT MIN(kickoff_instant), MAX(kickoff_instant) FROM fixtures
		WHERE league_id = $1 AND season = $2
		  AND kickoff_instant >= $3 AND kickoff_instant < $4
	`, leagueID, season, start, end).Scan(&earliest, &latest)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("daily fixture window: %w", err))
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &Window{Earliest: earliest.Time, Latest: latest.Time}, nil
}

func (r *PostgresRepository) GetFixturesForDate(ctx context.Context, leagueID int64, season int, date time.Time) ([]model.Fixture, error) {
	start, end := dayBounds(date)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fixtureColumns+` FROM fixtures
		WHERE league_id = $1 AND season = $2
		  AND kickoff_instant >= $3 AND kickoff_instant < $4
		ORDER BY kickoff_instant ASC
	`, leagueID, season, start, end)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("fixtures for date: %w", err))
	}
	defer rows.Close()
	return scanFixtures(rows)
}

func (r *PostgresRepository) HasFixtures(ctx context.Context, leagueID int64, season int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM fixtures WHERE league_id = $1 AND season = $2)
	`, leagueID, season).Scan(&exists)
	if err != nil {
		return false, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("has fixtures: %w", err))
	}
	return exists, nil
}

func (r *PostgresRepository) HasLiveMatches(ctx context.Context, leagueID int64, season int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM fixtures WHERE league_id = $1 AND season = $2 AND status_short = ANY($3))
	`, leagueID, season, pq.Array(liveStatusValues)).Scan(&exists)
	if err != nil {
		return false, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("has live matches: %w", err))
	}
	return exists, nil
}

func (r *PostgresRepository) DeleteFinishedFixtures(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM fixtures WHERE status_short = ANY($1) AND kickoff_instant < $2
	`, pq.Array(terminalStatusValues), olderThan)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("delete finished fixtures: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindRepositoryTransient, err)
	}
	return int(n), nil
}

const fixtureColumns = `
	api_fixture_id, league_id, season, competition, kickoff_instant,
	status_short, status_long, elapsed_minutes, extra_minutes,
	home_team_id, home_team_name, home_team_logo, home_team_winner,
	away_team_id, away_team_name, away_team_logo, away_team_winner,
	home_goals, away_goals, halftime_home, halftime_away,
	fulltime_home, fulltime_away, venue, referee
`

func scanFixtures(rows *sql.Rows) ([]model.Fixture, error) {
	var out []model.Fixture
	for rows.Next() {
		var f model.Fixture
		var statusShort string
		if err := rows.Scan(
			&f.APIFixtureID, &f.LeagueID, &f.Season, &f.Competition, &f.KickoffInstant,
			&statusShort, &f.StatusLong, &f.ElapsedMinutes, &f.ExtraMinutes,
			&f.HomeTeam.ID, &f.HomeTeam.Name, &f.HomeTeam.Logo, &f.HomeTeam.Winner,
			&f.AwayTeam.ID, &f.AwayTeam.Name, &f.AwayTeam.Logo, &f.AwayTeam.Winner,
			&f.HomeGoals, &f.AwayGoals, &f.HalftimeHome, &f.HalftimeAway,
			&f.FulltimeHome, &f.FulltimeAway, &f.Venue, &f.Referee,
		); err != nil {
			return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, fmt.Errorf("scan fixture row: %w", err))
		}
		f.StatusShort = model.Status(statusShort)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.Wrap(apierrors.KindRepositoryTransient, err)
	}
	return out, nil
}
