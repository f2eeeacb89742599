package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/panscim/desideri-club-engine/internal/api/engine"
	"github.com/panscim/desideri-club-engine/internal/cache"
	"github.com/panscim/desideri-club-engine/internal/catalog"
	"github.com/panscim/desideri-club-engine/internal/config"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/internal/service/missions"
	"github.com/panscim/desideri-club-engine/internal/service/quests"
	"github.com/panscim/desideri-club-engine/internal/service/redemption"
	"github.com/panscim/desideri-club-engine/internal/service/unlock"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	loc, err := cfg.Club.GetLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid club timezone")
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var refCache cache.Cache
	if cfg.Database.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, &cfg.Database.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisCache.Close()
		refCache = redisCache
	}

	userRepo := repository.NewUserRepository(db)
	merchantRepo := repository.NewMerchantRepository(db, refCache)
	collectibleRepo := repository.NewCollectibleRepository(db, refCache)
	unlockRepo := repository.NewUnlockRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	questRepo := repository.NewQuestRepository(db)

	if cfg.Club.CatalogPath != "" {
		cat, err := catalog.Load(cfg.Club.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load catalog")
		}
		if err := catalog.Apply(ctx, db, cat, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply catalog")
		}
	}

	unlockSvc := unlock.NewService(unlockRepo, collectibleRepo, unlock.Config{
		DefaultRadius: cfg.Club.DefaultUnlockRadius,
		EventRadius:   cfg.Club.EventUnlockRadius,
	}, log.Component("unlock"))

	missionSvc := missions.NewService(db, missionRepo, loc, log.Component("missions"))

	redemptionSvc := redemption.NewService(db, merchantRepo, transactionRepo, unlockRepo, redemption.Config{
		Cooldown: cfg.Club.Cooldown(),
	}, log.Component("redemption"))

	questSvc := quests.NewService(questRepo, log.Component("quests"))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := engine.NewHandler(unlockSvc, redemptionSvc, missionSvc, questSvc, userRepo, transactionRepo, collectibleRepo, db, log.Component("api"))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
