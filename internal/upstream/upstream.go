// Package upstream defines the contract the core uses to talk to the
// external fixture provider. The core never depends on the provider's
// transport or JSON shape directly, only on this interface.
package upstream

import (
	"context"

	"github.com/mvpaudrey/afcon-live/internal/model"
)

// Client is the pure interface consumed by the fixture repository (initial
// sync) and the broadcaster (live polling). All operations are synchronous
// calls returning a result and a single error; a caller that gets an error
// classifies it with apierrors.KindOf, not with an upstream-specific type.
type Client interface {
	GetFixturesForLeagueSeason(ctx context.Context, leagueID int64, season int) ([]model.Fixture, error)
	GetLiveFixtures(ctx context.Context, leagueID int64) ([]model.Fixture, error)
	GetFixtureEvents(ctx context.Context, fixtureID int64) ([]model.FixtureEvent, error)
	GetFixtureByID(ctx context.Context, fixtureID int64) (model.Fixture, error)
	GetStandings(ctx context.Context, leagueID int64, season int) ([]model.StandingGroup, error)
}
