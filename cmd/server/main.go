package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fundtrack/internal/cache"
	"fundtrack/internal/client/tefas"
	"fundtrack/internal/config"
	cronrunner "fundtrack/internal/cron"
	"fundtrack/internal/db"
	"fundtrack/internal/handler"
	"fundtrack/internal/logger"
	gormrepository "fundtrack/internal/repository/gorm"
	"fundtrack/internal/service"
)

func main() {
	cfgPath := os.Getenv("FT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	tefasHTTP := &http.Client{Timeout: cfg.Tefas.Timeout}
	tefasClient := tefas.NewClient(tefasHTTP, cfg.Tefas.BaseURL, tefas.RetryPolicy{
		MaxAttempts: cfg.Tefas.MaxRetries,
		Base:        cfg.Tefas.RetryBase,
		Ceil:        cfg.Tefas.RetryCeil,
	})

	priceCache := cache.NewPriceCache(cfg.Cache)
	defer priceCache.Close()

	store := gormrepository.New(dbConn.Gorm)

	resolver := &service.PriceResolver{
		Fetcher:         tefasClient,
		Cache:           priceCache,
		Logger:          logger,
		MaxLookbackDays: cfg.Resolver.MaxLookbackDays,
	}
	snapshotSvc := &service.SnapshotService{Repo: store, Fetcher: tefasClient, Logger: logger}
	portfolioSvc := &service.PortfolioService{
		Repo:      store,
		Resolver:  resolver,
		Snapshots: snapshotSvc,
		Logger:    logger,
	}
	historySvc := &service.HistoryService{Repo: store, Snapshots: snapshotSvc, Logger: logger}

	advisorSvc, err := service.NewAdvisorService(context.Background(), cfg.Advisor, store, logger)
	if err != nil {
		logger.Warn("advisor init failed (AI endpoints disabled)", zap.Error(err))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	fundsHandler := &handler.FundsHandler{Client: tefasClient, Resolver: resolver}
	fundsHandler.Register(engine)
	portfolioHandler := &handler.PortfolioHandler{
		Portfolio: portfolioSvc,
		History:   historySvc,
		Snapshots: snapshotSvc,
	}
	portfolioHandler.Register(engine)
	adviceHandler := &handler.AdviceHandler{Advisor: advisorSvc, Portfolio: portfolioSvc}
	adviceHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.DailySnapshot, func(ctx context.Context) {
			if err := portfolioSvc.SnapshotFromLog(ctx); err != nil {
				logger.Warn("cron daily snapshot failed", zap.Error(err))
				return
			}
			logger.Info("cron daily snapshot ok")
		})
		if err != nil {
			logger.Warn("cron register daily snapshot failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.Backfill, func(ctx context.Context) {
			if err := portfolioSvc.BackfillGaps(ctx); err != nil {
				logger.Warn("cron backfill failed", zap.Error(err))
				return
			}
			logger.Info("cron backfill ok")
		})
		if err != nil {
			logger.Warn("cron register backfill failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
