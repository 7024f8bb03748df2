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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/buildlink/crm-api/api/swagger"
	"github.com/buildlink/crm-api/internal/handler"
	"github.com/buildlink/crm-api/internal/middleware"
	"github.com/buildlink/crm-api/internal/models"
	"github.com/buildlink/crm-api/internal/repository"
	"github.com/buildlink/crm-api/internal/service"
	"github.com/buildlink/crm-api/pkg/cache"
	"github.com/buildlink/crm-api/pkg/config"
	"github.com/buildlink/crm-api/pkg/database"
	"github.com/buildlink/crm-api/pkg/jobs"
	"github.com/buildlink/crm-api/pkg/logger"
	"github.com/buildlink/crm-api/pkg/mailer"
	corsmiddleware "github.com/buildlink/crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/buildlink/crm-api/pkg/middleware/requestid"
	"github.com/buildlink/crm-api/pkg/storage"
)

// @title BuildLink CRM API
// @version 1.0.0
// @description Supplier relationship CRM for construction procurement teams
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsService := service.NewMetricsService()
	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Dashboard.CacheTTL, logr, false)
	}

	blobStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	mail := mailer.New(cfg.SMTP)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	accessRuleRepo := repository.NewAccessRuleRepository(db)
	dealRepo := repository.NewDealRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	driveRepo := repository.NewDriveRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Services.
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "buildlink-crm",
	})
	userService := service.NewUserService(userRepo, nil, logr)
	accessRuleService := service.NewAccessRuleService(accessRuleRepo, userRepo, nil, logr)
	supplierService := service.NewSupplierService(supplierRepo, accessRuleRepo, nil, logr)
	dealService := service.NewDealService(dealRepo, nil, logr)
	taskService := service.NewTaskService(taskRepo, nil, logr)
	activityService := service.NewActivityService(activityRepo, nil, logr)
	documentService := service.NewDocumentService(documentRepo, blobStore, signer, cfg.Documents.MaxFileSizeBytes, logr)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, mail, cfg.Quotes.CounterpartRoles, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)

	quoteWorkflow := service.NewQuoteWorkflow(cfg.Quotes.CounterpartRoles)
	quoteService := service.NewQuoteService(quoteRepo, quoteWorkflow, notificationService, nil, logr)
	exportService := service.NewExportService(quoteService, supplierService, nil, logr)

	driveAccess := service.NewDriveAccessService(driveRepo, cacheService, cfg.Drive.ParentCacheTTL, logr)
	driveService := service.NewDriveService(driveRepo, driveAccess, nil, logr)

	dashboardService := service.NewDashboardService(analyticsRepo, cacheService, cfg.Dashboard.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	accessRuleHandler := handler.NewAccessRuleHandler(accessRuleService)
	dealHandler := handler.NewDealHandler(dealService)
	quoteHandler := handler.NewQuoteHandler(quoteService, exportService)
	taskHandler := handler.NewTaskHandler(taskService)
	activityHandler := handler.NewActivityHandler(activityService)
	documentHandler := handler.NewDocumentHandler(documentService)
	driveHandler := handler.NewDriveHandler(driveService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)
	defer notificationService.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, routeDeps{
		auth:          authHandler,
		users:         userHandler,
		suppliers:     supplierHandler,
		accessRules:   accessRuleHandler,
		deals:         dealHandler,
		quotes:        quoteHandler,
		tasks:         taskHandler,
		activities:    activityHandler,
		documents:     documentHandler,
		drive:         driveHandler,
		notifications: notificationHandler,
		dashboard:     dashboardHandler,
		authService:   authService,
		userRepo:      userRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeDeps struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	suppliers     *handler.SupplierHandler
	accessRules   *handler.AccessRuleHandler
	deals         *handler.DealHandler
	quotes        *handler.QuoteHandler
	tasks         *handler.TaskHandler
	activities    *handler.ActivityHandler
	documents     *handler.DocumentHandler
	drive         *handler.DriveHandler
	notifications *handler.NotificationHandler
	dashboard     *handler.DashboardHandler
	authService   *service.AuthService
	userRepo      *repository.UserRepository
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
		auth.POST("/forgot-password", deps.auth.ForgotPassword)
		auth.POST("/reset-password", deps.auth.ResetPassword)
		auth.POST("/logout", middleware.JWT(deps.authService), deps.auth.Logout)
		auth.POST("/change-password", middleware.JWT(deps.authService), deps.auth.ChangePassword)
		auth.GET("/me", middleware.JWT(deps.authService), deps.auth.Me)
	}

	// Signed token download, no session required.
	api.GET("/downloads/documents", deps.documents.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.authService))
	authed.Use(middleware.WithResponseMeta())

	admin := middleware.RequireRoles(models.RoleAdmin)
	editors := middleware.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleProcurement)

	users := authed.Group("/users", admin)
	{
		users.GET("", deps.users.List)
		users.GET("/:id", deps.users.Get)
		users.POST("", middleware.Audit(deps.userRepo, "create", "user"), deps.users.Create)
		users.PUT("/:id", middleware.Audit(deps.userRepo, "update", "user"), deps.users.Update)
		users.DELETE("/:id", middleware.Audit(deps.userRepo, "delete", "user"), deps.users.Delete)
	}

	rules := authed.Group("/access-rules", admin)
	{
		rules.GET("", deps.accessRules.List)
		rules.GET("/users/:userId", deps.accessRules.ListForUser)
		rules.POST("", middleware.Audit(deps.userRepo, "grant", "access_rule"), deps.accessRules.Create)
		rules.PUT("/replace", middleware.Audit(deps.userRepo, "replace", "access_rule"), deps.accessRules.Replace)
		rules.DELETE("/:id", middleware.Audit(deps.userRepo, "revoke", "access_rule"), deps.accessRules.Delete)
	}

	suppliers := authed.Group("/suppliers")
	{
		suppliers.GET("", deps.suppliers.List)
		suppliers.GET("/:id", deps.suppliers.Get)
		suppliers.POST("", editors, deps.suppliers.Create)
		suppliers.PUT("/:id", editors, deps.suppliers.Update)
		suppliers.DELETE("/:id", admin, deps.suppliers.Delete)
	}

	deals := authed.Group("/deals")
	{
		deals.GET("", deps.deals.List)
		deals.GET("/:id", deps.deals.Get)
		deals.POST("", editors, deps.deals.Create)
		deals.PUT("/:id", editors, deps.deals.Update)
		deals.DELETE("/:id", admin, deps.deals.Delete)
	}

	quotes := authed.Group("/quotes")
	{
		quotes.GET("", deps.quotes.List)
		quotes.GET("/:id", deps.quotes.Get)
		quotes.POST("", editors, deps.quotes.Create)
		quotes.PUT("/:id", editors, deps.quotes.Update)
		quotes.DELETE("/:id", admin, deps.quotes.Delete)

		quotes.POST("/:id/submit", deps.quotes.Transition(models.QuoteActionSubmit))
		quotes.POST("/:id/approve", deps.quotes.Transition(models.QuoteActionApprove))
		quotes.POST("/:id/reject", deps.quotes.Transition(models.QuoteActionReject))
		quotes.POST("/:id/accept", deps.quotes.Transition(models.QuoteActionAccept))
		quotes.POST("/:id/decline", deps.quotes.Transition(models.QuoteActionDecline))
	}

	tasks := authed.Group("/tasks")
	{
		tasks.GET("", deps.tasks.List)
		tasks.GET("/:id", deps.tasks.Get)
		tasks.POST("", deps.tasks.Create)
		tasks.PUT("/:id", deps.tasks.Update)
		tasks.DELETE("/:id", deps.tasks.Delete)
	}

	activities := authed.Group("/activities")
	{
		activities.GET("", deps.activities.List)
		activities.POST("", deps.activities.Create)
		activities.DELETE("/:id", deps.activities.Delete)
	}

	documents := authed.Group("/documents")
	{
		documents.GET("", deps.documents.List)
		documents.GET("/:id", deps.documents.Get)
		documents.POST("", deps.documents.Upload)
		documents.POST("/:id/download", deps.documents.SignDownload)
		documents.DELETE("/:id", editors, deps.documents.Delete)
	}

	drive := authed.Group("/drive")
	{
		drive.GET("/folders", deps.drive.RootFolders)
		drive.GET("/folders/:id", deps.drive.Browse)
		drive.GET("/files/:id", deps.drive.GetFile)
		drive.POST("/assignments", admin, middleware.Audit(deps.userRepo, "assign", "drive_folder"), deps.drive.AssignFolder)
		drive.DELETE("/assignments/:clientId/:folderId", admin, middleware.Audit(deps.userRepo, "revoke", "drive_folder"), deps.drive.RevokeFolder)
		drive.PUT("/memberships", admin, deps.drive.SetMembership)
		drive.DELETE("/memberships/:userId", admin, deps.drive.RemoveMembership)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", deps.notifications.List)
		notifications.PUT("/:id/read", deps.notifications.MarkRead)
		notifications.POST("/read-all", deps.notifications.MarkAllRead)
	}

	exports := authed.Group("/exports")
	{
		exports.GET("/suppliers", deps.suppliers.ExportCSV)
		exports.GET("/quotes/:id", deps.quotes.ExportPDF)
	}

	if cfg.Dashboard.Enabled {
		authed.GET("/dashboard", deps.dashboard.Overview)
	}
}
