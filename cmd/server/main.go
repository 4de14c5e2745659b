package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Velocity-BPA/convex-monitor/internal/config"
	"github.com/Velocity-BPA/convex-monitor/internal/convex"
	"github.com/Velocity-BPA/convex-monitor/internal/dedup"
	"github.com/Velocity-BPA/convex-monitor/internal/dispatch"
	"github.com/Velocity-BPA/convex-monitor/internal/handler"
	"github.com/Velocity-BPA/convex-monitor/internal/middleware"
	"github.com/Velocity-BPA/convex-monitor/internal/scheduler"
	"github.com/Velocity-BPA/convex-monitor/internal/store"
	"github.com/Velocity-BPA/convex-monitor/internal/trigger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	convex.LicenseNotice(logger)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis dedup (retry up to 30s for ExternalSecret to sync)
	var dd *dedup.Deduplicator
	for i := 0; i < 6; i++ {
		dd, err = dedup.New(cfg.RedisURL, cfg.RedisPassword, cfg.DedupTTL)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer dd.Close()
	logger.Info("redis connected for event dedup")

	// Data client, polling engine, webhook dispatch
	client := convex.NewClient(convex.Options{
		SnapshotURL: cfg.SnapshotURL,
		Timeout:     cfg.FetchTimeout,
	}, logger)
	engine := trigger.NewEngine(client, logger)
	dispatcher := dispatch.New(dd, logger)
	sched := scheduler.New(db, engine, dispatcher, logger, cfg.PollInterval)

	go sched.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/pools", handler.ListPools(client))
		r.Get("/pools/top/apy", handler.TopPoolsByApy(client))
		r.Get("/pools/top/tvl", handler.TopPoolsByTvl(client))
		r.Get("/pools/{id}", handler.GetPool(client))

		r.Get("/protocol/tvl", handler.ProtocolTvl(client))
		r.Get("/protocol/stats", handler.PlatformStats(client))
		r.Get("/protocol/fees", handler.FeeStructure())
		r.Get("/protocol/peg", handler.PegRatio(client))
		r.Get("/protocol/emissions", handler.Emissions())

		r.Get("/staking/stats", handler.CvxCrvStats(client))
		r.Get("/staking/apr", handler.StakingApr(client))
		r.Get("/staking/tvl", handler.StakingTvl(client))
		r.Get("/staking/rewards", handler.CvxCrvRewards(client))

		r.Get("/token/cvx/supply", handler.CvxSupply(client))
		r.Get("/token/cvxcrv/supply", handler.CvxCrvSupply(client))
		r.Get("/token/{token}/holders", handler.TokenHolders())

		r.Get("/locking/stats", handler.VlCvxStats(client))
		r.Get("/locking/apr", handler.LockApr(client))
		r.Get("/locking/bribes", handler.BribeRevenue(client))
		r.Get("/locking/voting-power", handler.VotingPower(client))

		r.Get("/frax/pools", handler.FraxPools(client))
		r.Get("/frax/apy", handler.FraxApy(client))
		r.Get("/frax/cvxfxs", handler.CvxFxsStats(client))
		r.Get("/frax/rewards", handler.FxsRewards(client))

		r.Get("/prisma/pools", handler.PrismaPools(client))
		r.Get("/prisma/apy", handler.PrismaApy(client))
		r.Get("/prisma/cvxprisma", handler.CvxPrismaStats(client))

		r.Get("/proposals", handler.AllProposals(client))
		r.Get("/proposals/active", handler.ActiveProposals(client))
		r.Get("/proposals/gauge-votes", handler.GaugeVotes(client))
		r.Get("/proposals/schedule", handler.VotingSchedule())
		r.Get("/proposals/{id}", handler.GetProposal(client))
		r.Get("/proposals/{id}/votes", handler.ProposalVotes(client))

		r.Get("/triggers", handler.ListTriggers(db))
		r.Post("/triggers", handler.CreateTrigger(db))
		r.Get("/triggers/{id}", handler.GetTrigger(db))
		r.Put("/triggers/{id}/enabled", handler.SetTriggerEnabled(db))
		r.Delete("/triggers/{id}", handler.DeleteTrigger(db))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
