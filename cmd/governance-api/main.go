package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jay1247sjh/smartmall-governance-api/api/swagger"
	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/handler"
	"github.com/jay1247sjh/smartmall-governance-api/internal/middleware"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
	"github.com/jay1247sjh/smartmall-governance-api/internal/scheduler"
	"github.com/jay1247sjh/smartmall-governance-api/internal/service"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/cache"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/config"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/database"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/logger"
	corsmiddleware "github.com/jay1247sjh/smartmall-governance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jay1247sjh/smartmall-governance-api/pkg/middleware/requestid"
)

// @title Smart Mall Governance API
// @version 1.0.0
// @description Area permission and layout version governance for the smart mall platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidations(v); err != nil {
			logr.Sugar().Fatalw("validator setup failed", "error", err)
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Database.MigrationsDir != "" {
		if err := database.Migrate(db, cfg.Database.MigrationsDir); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	areaRepo := repository.NewAreaRepository(db)
	applyRepo := repository.NewApplyRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	layoutRepo := repository.NewLayoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	notifier := service.NewEventNotifier(cacheRepo, cfg.Events.Channel, cfg.Events.Workers, cfg.Events.BufferSize, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	metricsSvc := service.NewMetricsService()
	applySvc := service.NewApplyService(applyRepo, areaRepo, notifier, cfg.Governance.DefaultPermissionTTL, logr)
	permSvc := service.NewPermissionService(permRepo, notifier, logr)
	layoutSvc := service.NewLayoutService(layoutRepo, areaRepo, permRepo, cacheRepo, notifier, cfg.Governance.ActiveLayoutCacheTTL, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	if cfg.Governance.SweepEnabled {
		sweeper := scheduler.NewSweeper(permSvc, metricsSvc, cfg.Governance.SweepInterval, logr)
		if err := sweeper.Start(ctx); err != nil {
			logr.Sugar().Fatalw("sweeper start failed", "error", err)
		}
		defer sweeper.Stop()
	}

	applyHandler := handler.NewApplyHandler(applySvc)
	permHandler := handler.NewPermissionHandler(permSvc)
	layoutHandler := handler.NewLayoutHandler(layoutSvc)
	auditHandler := handler.NewAuditHandler(auditSvc, cfg.Audit.ExportEnabled)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(cfg.JWT.Secret))
	{
		api.GET("/areas/available", applyHandler.ListAvailableAreas)
		api.GET("/areas/:areaId/permission/check", permHandler.CheckActive)

		api.POST("/applies", middleware.RequireRoles(models.RoleMerchant), applyHandler.Submit)
		api.GET("/applies", applyHandler.List)
		api.GET("/applies/:id", applyHandler.Get)
		api.POST("/applies/:id/approve", middleware.RequireRoles(models.RoleAdmin), applyHandler.Approve)
		api.POST("/applies/:id/reject", middleware.RequireRoles(models.RoleAdmin), applyHandler.Reject)

		api.GET("/permissions", permHandler.ListMine)
		api.GET("/permissions/:id", permHandler.Get)
		api.POST("/permissions/:id/revoke", middleware.RequireRoles(models.RoleAdmin), permHandler.Revoke)

		api.POST("/layouts/validate-edit", layoutHandler.ValidateEdit)
		api.POST("/proposals", middleware.RequireRoles(models.RoleMerchant), layoutHandler.SubmitProposal)
		api.GET("/proposals", layoutHandler.ListProposals)
		api.GET("/proposals/:id", layoutHandler.GetProposal)
		api.POST("/proposals/:id/review", middleware.RequireRoles(models.RoleAdmin), layoutHandler.ReviewProposal)

		api.POST("/versions/draft", middleware.RequireRoles(models.RoleAdmin), layoutHandler.CreateDraft)
		api.POST("/versions/publish", middleware.RequireRoles(models.RoleAdmin), layoutHandler.Publish)
		api.POST("/versions/rollback", middleware.RequireRoles(models.RoleAdmin), layoutHandler.Rollback)
		api.GET("/versions/:id", layoutHandler.GetVersion)
		api.GET("/malls/:mallId/layout/active", layoutHandler.GetActive)
		api.GET("/malls/:mallId/layout/versions", layoutHandler.ListVersions)

		api.GET("/audit", middleware.RequireRoles(models.RoleAdmin), auditHandler.List)
		api.GET("/audit/export", middleware.RequireRoles(models.RoleAdmin), auditHandler.Export)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
