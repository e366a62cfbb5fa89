package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/handler"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	"github.com/noah-isme/credit-tracker-api/internal/router"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	"github.com/noah-isme/credit-tracker-api/pkg/cache"
	"github.com/noah-isme/credit-tracker-api/pkg/config"
	"github.com/noah-isme/credit-tracker-api/pkg/database"
	"github.com/noah-isme/credit-tracker-api/pkg/jobs"
	"github.com/noah-isme/credit-tracker-api/pkg/logger"
	"github.com/noah-isme/credit-tracker-api/pkg/signing"
	"github.com/noah-isme/credit-tracker-api/pkg/tracing"
)

// @title Credit Tracker API
// @version 1.0.0
// @description Course completion and credit progress tracking for students and administrators
// @BasePath /api/v1
// @schemes http https

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx, cfg, logr)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	cacheRepo, closeCache := newCacheRepository(ctx, cfg, logr)
	defer closeCache()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ProgramTTL, logr)
	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	programRepo := repository.NewProgramRepository(db)
	basketCreditRepo := repository.NewBasketCreditRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(studentRepo, adminRepo, validate, logr, metrics, service.AuthConfig{
		Secret:            cfg.JWT.Secret,
		TokenExpiry:       cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		MaxFailedLogins:   cfg.Admin.MaxFailedLogins,
		LockoutDuration:   cfg.Admin.LockoutDuration,
		BootstrapPasscode: cfg.Admin.BootstrapPasscode,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	programSvc := service.NewProgramService(programRepo, cacheSvc, cfg.Cache.ProgramTTL, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, programRepo, completionRepo, studentRepo, cacheSvc, validate, logr)
	completionSvc := service.NewCompletionService(completionRepo, studentRepo, courseRepo, cacheSvc, metrics, validate, logr)
	creditSvc := service.NewCreditService(completionRepo, studentRepo, programSvc, logr).
		WithLinkSigner(signing.NewSigner(cfg.Export.LinkSecret, cfg.Export.LinkTTL))
	basketCreditSvc := service.NewBasketCreditService(basketCreditRepo, courseRepo, programSvc, cacheSvc, cfg.Cache.BasketCreditTTL, logr)
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, metrics, cfg.Cache.DashboardTTL, logr)
	auditSvc := service.NewAuditService(adminRepo, jobs.Config{Workers: 2, BufferSize: 256}, logr)
	auditSvc.Start(context.Background())

	engine := router.New(cfg, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, cfg.Cookie),
		Me:         handler.NewMeHandler(studentSvc, courseSvc),
		Course:     handler.NewCourseHandler(courseSvc),
		Completion: handler.NewCompletionHandler(completionSvc),
		Credit:     handler.NewCreditHandler(creditSvc, basketCreditSvc),
		Program:    handler.NewProgramHandler(programSvc),
		Student:    handler.NewStudentHandler(studentSvc),
		Admin:      handler.NewAdminHandler(adminSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Metrics:    handler.NewMetricsHandler(metrics, db),
	}, router.Dependencies{
		Resolver: authSvc,
		Auditor:  auditSvc,
		Observer: metrics,
		Logger:   logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", cfg.Cache.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	auditSvc.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracer shutdown failed", zap.Error(err))
	}
}

// newCacheRepository selects the cache backend. A Redis connection failure
// falls back to the in-process store.
func newCacheRepository(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.CacheRepository, func()) {
	if cfg.Cache.Driver != config.CacheDriverRedis {
		return cache.NewMemoryStore(), func() {}
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, using memory cache", zap.Error(err))
		return cache.NewMemoryStore(), func() {}
	}
	repo := repository.NewRedisCacheRepository(client, logr)
	return repo, func() { _ = repo.Close() }
}
