package fixture

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mvpaudrey/afcon-live/internal/model"
)

// MemoryRepository is an in-memory Repository used by tests across the
// core packages (broadcaster, standings, grpcserver) so they can exercise
// the real upsert/query contract without a database.
type MemoryRepository struct {
	mu       sync.Mutex
	fixtures map[int64]model.Fixture
}

// NewMemoryRepository builds an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{fixtures: make(map[int64]model.Fixture)}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Upsert(_ context.Context, f model.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.fixtures[f.APIFixtureID]; ok {
		if existing.StatusShort.IsTerminal() && !f.StatusShort.IsTerminal() {
			// A terminal stored status is never overwritten by a live one.
			f.StatusShort = existing.StatusShort
			f.StatusLong = existing.StatusLong
			f.ElapsedMinutes = existing.ElapsedMinutes
			f.ExtraMinutes = existing.ExtraMinutes
		}
		if !existing.StatusShort.IsPreLive() {
			// kickoffInstant only moves while the fixture hasn't started;
			// once it has left the pre-live states it is frozen.
			f.KickoffInstant = existing.KickoffInstant
		}
	}
	r.fixtures[f.APIFixtureID] = f
	return nil
}

func (r *MemoryRepository) UpsertBatch(ctx context.Context, fs []model.Fixture) (int, error) {
	succeeded := 0
	for _, f := range fs {
		if err := r.Upsert(ctx, f); err != nil {
			continue
		}
		succeeded++
	}
	return succeeded, nil
}

func (r *MemoryRepository) GetNextUpcomingTimestamp(_ context.Context, leagueID int64, season int) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var best *time.Time
	for _, f := range r.fixtures {
		if f.LeagueID != leagueID || f.Season != season {
			continue
		}
		if !f.StatusShort.IsPreLive() {
			continue
		}
		if !f.KickoffInstant.After(now) {
			continue
		}
		if best == nil || f.KickoffInstant.Before(*best) {
			k := f.KickoffInstant
			best = &k
		}
	}
	return best, nil
}

func (r *MemoryRepository) GetFixturesAtTimestamp(_ context.Context, leagueID int64, season int, instant time.Time) ([]model.Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Fixture
	for _, f := range r.fixtures {
		if f.LeagueID == leagueID && f.Season == season && f.KickoffInstant.Equal(instant) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].APIFixtureID < out[j].APIFixtureID })
	return out, nil
}

func (r *MemoryRepository) GetDailyFixtureWindow(_ context.Context, leagueID int64, season int, referenceDate time.Time) (*Window, error) {
	start, end := dayBounds(referenceDate)
	r.mu.Lock()
	defer r.mu.Unlock()
	var earliest, latest time.Time
	found := false
	for _, f := range r.fixtures {
		if f.LeagueID != leagueID || f.Season != season {
			continue
		}
		k := f.KickoffInstant
		if k.Before(start) || !k.Before(end) {
			continue
		}
		if !found || k.Before(earliest) {
			earliest = k
		}
		if !found || k.After(latest) {
			latest = k
		}
		found = true
	}
	if !found {
		return nil, nil
	}
	return &Window{Earliest: earliest, Latest: latest}, nil
}

func (r *MemoryRepository) GetFixturesForDate(_ context.Context, leagueID int64, season int, date time.Time) ([]model.Fixture, error) {
	start, end := dayBounds(date)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Fixture
	for _, f := range r.fixtures {
		if f.LeagueID != leagueID || f.Season != season {
			continue
		}
		k := f.KickoffInstant
		if !k.Before(start) && k.Before(end) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffInstant.Before(out[j].KickoffInstant) })
	return out, nil
}

func (r *MemoryRepository) HasFixtures(_ context.Context, leagueID int64, season int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fixtures {
		if f.LeagueID == leagueID && f.Season == season {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) HasLiveMatches(_ context.Context, leagueID int64, season int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fixtures {
		if f.LeagueID == leagueID && f.Season == season && f.StatusShort.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) DeleteFinishedFixtures(_ context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, f := range r.fixtures {
		if f.StatusShort.IsTerminal() && f.KickoffInstant.Before(olderThan) {
			delete(r.fixtures, id)
			deleted++
		}
	}
	return deleted, nil
}

// Get returns the stored fixture for id, for test assertions.
func (r *MemoryRepository) Get(id int64) (model.Fixture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fixtures[id]
	return f, ok
}

// CountingRepository wraps MemoryRepository with an Upsert call counter
// for tests that assert on exact write counts.
type CountingRepository struct {
	*MemoryRepository
	mu    sync.Mutex
	calls int
}

// NewCountingRepository wraps a fresh MemoryRepository with an upsert
// call counter.
func NewCountingRepository() *CountingRepository {
	return &CountingRepository{MemoryRepository: NewMemoryRepository()}
}

func (r *CountingRepository) Upsert(ctx context.Context, f model.Fixture) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.MemoryRepository.Upsert(ctx, f)
}

func (r *CountingRepository) UpsertCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
