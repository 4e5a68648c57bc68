// Package grpcserver is the thin edge adapter: it holds no business logic
// beyond subscribing/draining the broadcaster and wiring the two unary
// RPCs to the upstream client and the repository. Every decision about
// what an update means or when to poll lives in the packages this calls
// into.
package grpcserver

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvpaudrey/afcon-live/internal/broadcaster"
	"github.com/mvpaudrey/afcon-live/internal/fixture"
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/internal/pb"
	"github.com/mvpaudrey/afcon-live/internal/upstream"
	"github.com/mvpaudrey/afcon-live/pkg/cache"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

const dateLayout = "2006-01-02"

// Server implements pb.AFCONServer.
type Server struct {
	broadcaster    *broadcaster.Broadcaster
	repo           fixture.Repository
	upstreamClient upstream.Client
	fixturesCache  *cache.Cache
	logger         logging.Logger
}

// New builds the gRPC edge. fixturesCache backs GetFixturesByDate; it may
// be the same *cache.Cache instance the standings refresher uses, or a
// dedicated one — the two never share keys.
func New(b *broadcaster.Broadcaster, repo fixture.Repository, uc upstream.Client, fixturesCache *cache.Cache, logger logging.Logger) *Server {
	return &Server{broadcaster: b, repo: repo, upstreamClient: uc, fixturesCache: fixturesCache, logger: logger}
}

var _ pb.AFCONServer = (*Server)(nil)

// StreamLiveMatches subscribes to the broadcaster and drains it into the
// wire until the stream closes or the transport cancels.
func (s *Server) StreamLiveMatches(req *pb.LiveMatchRequest, stream pb.AFCON_StreamLiveMatchesServer) error {
	key := broadcaster.Key{LeagueID: int64(req.LeagueID), Season: int(req.Season)}
	sub := s.broadcaster.Subscribe(stream.Context(), key)
	defer s.broadcaster.Unsubscribe(key, sub.ID)

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if err := stream.Send(updateToWire(update)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// SyncFixtures fetches every fixture for the league/season from the
// upstream and upserts the batch. Safe to call repeatedly.
func (s *Server) SyncFixtures(ctx context.Context, req *pb.SyncFixturesRequest) (*pb.SyncFixturesResponse, error) {
	fixtures, err := s.upstreamClient.GetFixturesForLeagueSeason(ctx, int64(req.LeagueID), int(req.Season))
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "fetch fixtures: %v", err)
	}

	synced, err := s.repo.UpsertBatch(ctx, fixtures)
	if err != nil {
		s.logger.WithFields(logging.FixtureFields(int64(req.LeagueID), int(req.Season), "error", err.Error())).Warn("sync fixtures: partial batch failure")
	}

	return &pb.SyncFixturesResponse{
		Success:        synced > 0 || len(fixtures) == 0,
		FixturesSynced: int32(synced),
		Message:        fmt.Sprintf("synced %d/%d fixtures", synced, len(fixtures)),
	}, nil
}

// GetFixturesByDate is cache-or-upstream first, with an explicit fallback
// to the repository on upstream failure.
func (s *Server) GetFixturesByDate(ctx context.Context, req *pb.GetFixturesByDateRequest) (*pb.GetFixturesByDateResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date %q: %v", req.Date, err)
	}
	if req.LeagueID == nil || req.Season == nil {
		return nil, status.Error(codes.InvalidArgument, "leagueId and season are required")
	}
	leagueID := int64(*req.LeagueID)
	season := int(*req.Season)

	cacheKey := cache.Key{Namespace: "fixtures-by-date", LeagueID: leagueID, Season: season, Extra: req.Date}
	val, _, err := s.fixturesCache.Get(ctx, cacheKey, func(ctx context.Context, _ cache.Key) (interface{}, bool, error) {
		all, err := s.upstreamClient.GetFixturesForLeagueSeason(ctx, leagueID, season)
		if err != nil {
			return nil, false, err
		}
		return filterByUTCDate(all, date), true, nil
	})
	if err == nil {
		return &pb.GetFixturesByDateResponse{Fixtures: fixturesToWire(val.([]model.Fixture))}, nil
	}

	s.logger.WithFields(logging.FixtureFields(leagueID, season, "date", req.Date, "error", err.Error())).Warn("fixtures-by-date upstream path failed, falling back to repository")
	fromRepo, repoErr := s.repo.GetFixturesForDate(ctx, leagueID, season, date)
	if repoErr != nil {
		return nil, status.Errorf(codes.Unavailable, "upstream and repository both failed: %v", repoErr)
	}
	return &pb.GetFixturesByDateResponse{Fixtures: fixturesToWire(fromRepo)}, nil
}

func filterByUTCDate(fixtures []model.Fixture, date time.Time) []model.Fixture {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	out := make([]model.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		k := f.KickoffInstant.UTC()
		if !k.Before(start) && k.Before(end) {
			out = append(out, f)
		}
	}
	return out
}
