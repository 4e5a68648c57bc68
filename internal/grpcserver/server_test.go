package grpcserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/mvpaudrey/afcon-live/internal/broadcaster"
	"github.com/mvpaudrey/afcon-live/internal/fixture"
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/internal/pb"
	"github.com/mvpaudrey/afcon-live/internal/schedule"
	"github.com/mvpaudrey/afcon-live/pkg/cache"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

// fakeStream is a minimal grpc.ServerStream + pb.AFCON_StreamLiveMatchesServer
// fake: enough for StreamLiveMatches to drain into it without a real
// transport.
type fakeStream struct {
	ctx context.Context

	mu  sync.Mutex
	got []*pb.LiveMatchUpdate
}

func (s *fakeStream) Send(u *pb.LiveMatchUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, u)
	return nil
}

func (s *fakeStream) received() []*pb.LiveMatchUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pb.LiveMatchUpdate, len(s.got))
	copy(out, s.got)
	return out
}

func (s *fakeStream) SetHeader(metadata.MD) error  { return nil }
func (s *fakeStream) SendHeader(metadata.MD) error { return nil }
func (s *fakeStream) SetTrailer(metadata.MD)       {}
func (s *fakeStream) Context() context.Context     { return s.ctx }
func (s *fakeStream) SendMsg(interface{}) error    { return nil }
func (s *fakeStream) RecvMsg(interface{}) error    { return nil }

type fakeUpstreamClient struct {
	fixturesForDate []model.Fixture
	fixturesErr     error
	syncFixtures    []model.Fixture
	syncErr         error
}

func (f *fakeUpstreamClient) GetFixturesForLeagueSeason(context.Context, int64, int) ([]model.Fixture, error) {
	if f.fixturesErr != nil {
		return nil, f.fixturesErr
	}
	if f.syncFixtures != nil {
		return f.syncFixtures, nil
	}
	return f.fixturesForDate, nil
}
func (f *fakeUpstreamClient) GetLiveFixtures(context.Context, int64) ([]model.Fixture, error) {
	return nil, nil
}
func (f *fakeUpstreamClient) GetFixtureEvents(context.Context, int64) ([]model.FixtureEvent, error) {
	return nil, nil
}
func (f *fakeUpstreamClient) GetFixtureByID(context.Context, int64) (model.Fixture, error) {
	return model.Fixture{}, nil
}
func (f *fakeUpstreamClient) GetStandings(context.Context, int64, int) ([]model.StandingGroup, error) {
	return nil, nil
}

func newTestServer(uc *fakeUpstreamClient, repo fixture.Repository) *Server {
	tbl := schedule.DefaultTable()
	tbl.UnknownSleep = 5 * time.Millisecond
	bc := broadcaster.New(uc, repo, tbl, logging.NewLogger(), broadcaster.Hooks{}, 8)
	c := cache.New(cache.Options{TTL: time.Minute, StaleWhileRevalidate: time.Minute, MaxEntries: 64}, cache.MetricsHooks{})
	return New(bc, repo, uc, c, logging.NewLogger())
}

func TestStreamLiveMatchesDrainsUntilContextCancelled(t *testing.T) {
	uc := &fakeUpstreamClient{}
	repo := fixture.NewMemoryRepository()
	srv := newTestServer(uc, repo)

	ctx, cancel := context.WithCancel(context.Background())
	stream := &fakeStream{ctx: ctx}

	done := make(chan error, 1)
	go func() {
		done <- srv.StreamLiveMatches(&pb.LiveMatchRequest{LeagueID: 6, Season: 2025}, stream)
	}()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, srv.broadcaster.SubscriberCount(broadcaster.Key{LeagueID: 6, Season: 2025}),
		"expected StreamLiveMatches to register exactly one subscriber")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "expected clean return on context cancellation")
	case <-time.After(time.Second):
		t.Fatal("expected the handler to return after cancellation")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, srv.broadcaster.SubscriberCount(broadcaster.Key{LeagueID: 6, Season: 2025}),
		"expected the handler to unsubscribe on exit")
}

func TestSyncFixturesUpsertsEverythingFetched(t *testing.T) {
	fixtures := []model.Fixture{
		{APIFixtureID: 1, LeagueID: 6, Season: 2025, StatusShort: model.StatusNotStarted},
		{APIFixtureID: 2, LeagueID: 6, Season: 2025, StatusShort: model.StatusNotStarted},
	}
	uc := &fakeUpstreamClient{syncFixtures: fixtures}
	repo := fixture.NewMemoryRepository()
	srv := newTestServer(uc, repo)

	resp, err := srv.SyncFixtures(context.Background(), &pb.SyncFixturesRequest{LeagueID: 6, Season: 2025})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, int32(2), resp.FixturesSynced)

	_, ok := repo.Get(1)
	assert.True(t, ok, "expected fixture 1 to be upserted")
	_, ok = repo.Get(2)
	assert.True(t, ok, "expected fixture 2 to be upserted")
}

func TestGetFixturesByDateFallsBackToRepositoryOnUpstreamFailure(t *testing.T) {
	uc := &fakeUpstreamClient{fixturesErr: errors.New("upstream unavailable")}
	repo := fixture.NewMemoryRepository()
	day := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(context.Background(), model.Fixture{APIFixtureID: 9, LeagueID: 6, Season: 2025, KickoffInstant: day}))
	srv := newTestServer(uc, repo)

	leagueID := int32(6)
	season := int32(2025)
	resp, err := srv.GetFixturesByDate(context.Background(), &pb.GetFixturesByDateRequest{Date: "2026-02-01", LeagueID: &leagueID, Season: &season})
	require.NoError(t, err, "expected fallback to repository to succeed")
	require.Len(t, resp.Fixtures, 1)
	assert.Equal(t, int64(9), resp.Fixtures[0].APIFixtureID, "expected the repository fallback to surface fixture 9")
}

func TestGetFixturesByDateUsesUpstreamWhenAvailable(t *testing.T) {
	day := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)
	uc := &fakeUpstreamClient{fixturesForDate: []model.Fixture{
		{APIFixtureID: 5, LeagueID: 6, Season: 2025, KickoffInstant: day},
		{APIFixtureID: 6, LeagueID: 6, Season: 2025, KickoffInstant: day.Add(48 * time.Hour)},
	}}
	repo := fixture.NewMemoryRepository()
	srv := newTestServer(uc, repo)

	leagueID := int32(6)
	season := int32(2025)
	resp, err := srv.GetFixturesByDate(context.Background(), &pb.GetFixturesByDateRequest{Date: "2026-02-01", LeagueID: &leagueID, Season: &season})
	require.NoError(t, err)
	require.Len(t, resp.Fixtures, 1, "expected only the fixture on the requested UTC day")
	assert.Equal(t, int64(5), resp.Fixtures[0].APIFixtureID)
}
