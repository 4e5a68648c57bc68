package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mvpaudrey/afcon-live/internal/broadcaster"
	"github.com/mvpaudrey/afcon-live/internal/fixture"
	"github.com/mvpaudrey/afcon-live/internal/grpcserver"
	"github.com/mvpaudrey/afcon-live/internal/pb"
	"github.com/mvpaudrey/afcon-live/internal/schedule"
	"github.com/mvpaudrey/afcon-live/internal/standings"
	"github.com/mvpaudrey/afcon-live/internal/upstream"
	"github.com/mvpaudrey/afcon-live/pkg/cache"
	"github.com/mvpaudrey/afcon-live/pkg/config"
	"github.com/mvpaudrey/afcon-live/pkg/database"
	"github.com/mvpaudrey/afcon-live/pkg/grpcutil"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
	"github.com/mvpaudrey/afcon-live/pkg/middleware"
	"github.com/mvpaudrey/afcon-live/pkg/monitoring"
	"github.com/mvpaudrey/afcon-live/pkg/server"
	"github.com/mvpaudrey/afcon-live/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("afcon-live")
	config.LoadEnv(logger)

	logger.Info("Starting afcon-live (AFCON live-fixture middleware)")

	healthChecker := monitoring.NewHealthChecker("afcon-live", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("afcon-live", version.Version, version.GitCommit)

	pollerTicks, pollerTickDuration, activeTopics, subscriberGauge, subscriberDrops := metricsCollector.CreateFixtureMetrics()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbCfg, logger)
	defer db.Close()
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

	repo := fixture.NewPostgresRepository(db, logger)
	if _, err := db.Exec(fixture.Schema); err != nil {
		logger.WithError(err).Fatal("Failed to apply fixtures schema")
	}

	upstreamClient := upstream.NewHTTPClient(upstream.Config{
		BaseURL: config.RequireEnv("UPSTREAM_BASE_URL"),
		APIKey:  config.RequireEnv("UPSTREAM_API_KEY"),
		Logger:  logger,
	})

	leagues := config.ParseLeagueSpecs(config.GetEnv("INIT_LEAGUES", ""))
	if config.GetEnvBool("AUTO_INIT", true) {
		runInitialSyncGate(logger, upstreamClient, repo, leagues)
	}

	scheduleTable := schedule.DefaultTable()
	hooks := broadcaster.Hooks{
		OnPollTick: func(key broadcaster.Key, d time.Duration) {
			labels := keyLabels(key)
			pollerTicks.WithLabelValues(labels...).Inc()
			pollerTickDuration.WithLabelValues(labels...).Observe(d.Seconds())
		},
		OnSubscriberDrop: func(key broadcaster.Key, _ string) {
			subscriberDrops.WithLabelValues(keyLabels(key)...).Inc()
		},
		OnSubscriberEvict: func(key broadcaster.Key, subscriberID string) {
			logger.WithFields(logging.FixtureFields(key.LeagueID, key.Season, "subscriber_id", subscriberID)).Warn("evicted chronically slow subscriber")
		},
		OnTopicStarted: func(key broadcaster.Key) {
			activeTopics.WithLabelValues().Inc()
		},
		OnTopicStopped: func(key broadcaster.Key) {
			activeTopics.WithLabelValues().Dec()
		},
		OnSubscriberCountChanged: func(key broadcaster.Key, count int) {
			subscriberGauge.WithLabelValues(keyLabels(key)...).Set(float64(count))
		},
	}
	bc := broadcaster.New(upstreamClient, repo, scheduleTable, logger, hooks, broadcaster.DefaultBufferSize)

	if config.GetEnvBool("PAUSE_AFCON_LIVE_MATCHES", false) {
		for _, l := range leagues {
			bc.SetPaused(broadcaster.Key{LeagueID: l.LeagueID, Season: l.Season}, true)
		}
	}

	standingsCache := cache.New(cache.Options{
		TTL:                  30 * time.Minute,
		StaleWhileRevalidate: 5 * time.Minute,
		NegativeTTL:          30 * time.Second,
		MaxEntries:           1024,
	}, cache.MetricsHooks{})

	refresher := standings.New(upstreamClient, repo, standingsCache, standings.DefaultDurations(), logger)
	standingsLeagues := make([]standings.League, 0, len(leagues))
	for _, l := range leagues {
		standingsLeagues = append(standingsLeagues, standings.League{LeagueID: l.LeagueID, Season: l.Season})
	}
	refresherCtx, cancelRefresher := context.WithCancel(context.Background())
	defer cancelRefresher()
	go refresher.Run(refresherCtx, standingsLeagues)

	fixturesCache := cache.New(cache.Options{
		TTL:                  5 * time.Minute,
		StaleWhileRevalidate: time.Minute,
		NegativeTTL:          15 * time.Second,
		MaxEntries:           1024,
	}, cache.MetricsHooks{})

	grpcAPI := grpcserver.New(bc, repo, upstreamClient, fixturesCache, logger)

	grpcPort := config.GetEnv("GRPC_PORT", "19100")
	go func() {
		grpcAddr := fmt.Sprintf(":%s", grpcPort)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.WithError(err).Fatal("Failed to listen on gRPC port")
		}

		grpcSrv := grpc.NewServer(
			grpc.ChainUnaryInterceptor(
				grpcutil.SanitizeUnaryServerInterceptor(),
				middleware.GRPCRecoveryInterceptor(logger),
				middleware.GRPCLoggingInterceptor(logger),
			),
			grpc.ChainStreamInterceptor(
				middleware.GRPCStreamRecoveryInterceptor(logger),
				middleware.GRPCStreamLoggingInterceptor(logger),
			),
		)
		pb.RegisterAFCONServer(grpcSrv, grpcAPI)

		hs := health.NewServer()
		hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		hs.SetServingStatus(pb.AFCON_ServiceDesc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
		grpc_health_v1.RegisterHealthServer(grpcSrv, hs)

		logger.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logger.WithError(err).Fatal("gRPC server failed")
		}
	}()

	router := server.SetupServiceRouter(logger, "afcon-live", healthChecker, metricsCollector)
	serverConfig := server.DefaultConfig("afcon-live", "18100")

	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("HTTP server startup failed")
	}
}

func keyLabels(key broadcaster.Key) []string {
	return []string{strconv.FormatInt(key.LeagueID, 10), strconv.Itoa(key.Season)}
}

// runInitialSyncGate primes the repository so the scheduler's lookups
// return meaningful values on the very first subscribe.
func runInitialSyncGate(logger logging.Logger, uc upstream.Client, repo fixture.Repository, leagues []config.LeagueSpec) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, l := range leagues {
		has, err := repo.HasFixtures(ctx, l.LeagueID, l.Season)
		if err != nil {
			logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Error("initial sync gate: HasFixtures check failed")
			continue
		}
		if has {
			continue
		}

		fixtures, err := uc.GetFixturesForLeagueSeason(ctx, l.LeagueID, l.Season)
		if err != nil {
			logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Error("initial sync gate: fetch failed")
			continue
		}

		synced, err := repo.UpsertBatch(ctx, fixtures)
		if err != nil {
			logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "error", err.Error())).Warn("initial sync gate: partial upsert failure")
		}
		logger.WithFields(logging.FixtureFields(l.LeagueID, l.Season, "name", l.Name, "synced", synced, "total", len(fixtures))).Info("initial sync gate complete")
	}
}
