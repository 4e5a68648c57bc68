// Package standings implements the standings refresher: an independent
// per-league background loop that keeps a TTL cache of standings tables
// warm around each day's fixture window, without ever touching the
// fixture store's write path or taking on subscribers.
package standings

import (
	"context"
	"time"

	"github.com/mvpaudrey/afcon-live/internal/fixture"
	"github.com/mvpaudrey/afcon-live/internal/upstream"
	"github.com/mvpaudrey/afcon-live/pkg/cache"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

// League identifies one configured competition/season the refresher tracks.
type League struct {
	LeagueID int64
	Season   int
}

// Durations bundles the two cache lifetimes the refresher picks between:
// a shorter TTL while the league has a live match, a longer one while
// idle.
type Durations struct {
	Live time.Duration
	Idle time.Duration
}

// DefaultDurations returns a 2-minute TTL while the league has a live match
// and a 30-minute TTL otherwise.
func DefaultDurations() Durations {
	return Durations{Live: 2 * time.Minute, Idle: 30 * time.Minute}
}

const windowEndSlack = 3 * time.Hour
const noNextFixtureSleep = 12 * time.Hour

// CacheKey returns the key the refresher stores a league/season pair's
// standings under.
func CacheKey(leagueID int64, season int) cache.Key {
	return cache.Key{Namespace: "standings", LeagueID: leagueID, Season: season}
}

// Refresher runs one background loop per configured league.
type Refresher struct {
	upstreamClient upstream.Client
	repo           fixture.Repository
	cache          *cache.Cache
	durations      Durations
	logger         logging.Logger
}

// New builds a Refresher that writes each league's standings into c. No
// gRPC handler in this module reads standings from the cache.
func New(uc upstream.Client, repo fixture.Repository, c *cache.Cache, durations Durations, logger logging.Logger) *Refresher {
	return &Refresher{upstreamClient: uc, repo: repo, cache: c, durations: durations, logger: logger}
}

// Run starts one loop per league and blocks until ctx is cancelled and
// every loop has exited.
func (r *Refresher) Run(ctx context.Context, leagues []League) {
	done := make(chan struct{}, len(leagues))
	for _, l := range leagues {
		l := l
		go func() {
			r.runOne(ctx, l)
			done <- struct{}{}
		}()
	}
	for range leagues {
		<-done
	}
}

func (r *Refresher) runOne(ctx context.Context, l League) {
	for {
		if ctx.Err() != nil {
			return
		}

		now := time.Now()
		window, err := r.repo.GetDailyFixtureWindow(ctx, l.LeagueID, l.Season, now)
		if err != nil {
			r.logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Warn("daily fixture window lookup failed")
			if !sleepCtx(ctx, r.durations.Idle) {
				return
			}
			continue
		}

		if window == nil {
			if !r.sleepUntilNextWindow(ctx, l, now) {
				return
			}
			continue
		}

		anchor := window.Earliest
		windowEnd := window.Latest.Add(windowEndSlack)

		switch {
		case now.Before(anchor):
			if !sleepCtx(ctx, anchor.Sub(now)) {
				return
			}
			continue
		case now.After(windowEnd):
			if !r.sleepUntilNextWindow(ctx, l, now) {
				return
			}
			continue
		}

		r.refreshOnce(ctx, l)

		next := nextHourlyTick(anchor, now)
		if next.After(windowEnd) {
			next = windowEnd
		}
		if !sleepCtx(ctx, next.Sub(now)) {
			return
		}
	}
}

func (r *Refresher) sleepUntilNextWindow(ctx context.Context, l League, now time.Time) bool {
	nextKickoff, err := r.repo.GetNextUpcomingTimestamp(ctx, l.LeagueID, l.Season)
	if err != nil {
		r.logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Warn("next kickoff lookup failed")
		return sleepCtx(ctx, noNextFixtureSleep)
	}
	if nextKickoff == nil {
		return sleepCtx(ctx, noNextFixtureSleep)
	}
	nextWindow, err := r.repo.GetDailyFixtureWindow(ctx, l.LeagueID, l.Season, *nextKickoff)
	if err != nil || nextWindow == nil {
		return sleepCtx(ctx, noNextFixtureSleep)
	}
	wait := nextWindow.Earliest.Sub(now)
	if wait <= 0 {
		return true
	}
	return sleepCtx(ctx, wait)
}

func (r *Refresher) refreshOnce(ctx context.Context, l League) {
	groups, err := r.upstreamClient.GetStandings(ctx, l.LeagueID, l.Season)
	if err != nil {
		r.logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Warn("standings fetch failed, retrying next tick")
		return
	}

	live, err := r.repo.HasLiveMatches(ctx, l.LeagueID, l.Season)
	if err != nil {
		r.logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Warn("live-match probe failed, assuming idle TTL")
	}

	ttl := r.durations.Idle
	if live {
		ttl = r.durations.Live
	}
	r.cache.Set(CacheKey(l.LeagueID, l.Season), groups, ttl)
}

// nextHourlyTick returns the first anchor-aligned hourly boundary strictly
// after now.
func nextHourlyTick(anchor, now time.Time) time.Time {
	if now.Before(anchor) {
		return anchor
	}
	elapsed := now.Sub(anchor)
	hours := elapsed/time.Hour + 1
	return anchor.Add(hours * time.Hour)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
