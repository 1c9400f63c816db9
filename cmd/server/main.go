package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/config"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/handlers"
	"github.com/travellanka/listings-backend/internal/middleware"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
	"github.com/travellanka/listings-backend/pkg/jwt"
	"github.com/travellanka/listings-backend/pkg/sms"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Travel Lanka listings backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Listing store
	var (
		listingStore services.ListingStore
		mongoClient  *mongo.Client
	)
	switch cfg.Listings.Backend {
	case "mongo":
		logger.Info("Connecting to MongoDB listing store...")
		mongoClient, err = database.NewMongoClient(startupCtx, cfg.Listings.MongoURI)
		if err != nil {
			logger.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		mongoRepo := database.NewMongoListingRepository(mongoClient.Database(cfg.Listings.MongoDatabase))
		if err := mongoRepo.EnsureIndexes(startupCtx); err != nil {
			logger.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		listingStore = mongoRepo
		logger.WithField("database", cfg.Listings.MongoDatabase).Info("MongoDB listing store ready")
	default:
		listingStore = database.NewListingRepository(db)
		logger.Info("PostgreSQL listing store ready")
	}

	// Login rate limiter
	var (
		limiter             services.LoginLimiter
		redisClient         *redis.Client
		loginAttemptCleanup services.CleanupFunc
	)
	limitConfig := services.NewRateLimitConfig(cfg.Security.LoginMaxAttempts, cfg.Security.LoginWindowMinutes)
	if cfg.Redis.URL != "" {
		redisClient, err = database.NewRedisClient(startupCtx, cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		limiter = services.NewRedisLoginLimiter(redisClient, limitConfig)
		logger.Info("Login rate limiting backed by Redis")
	} else {
		rateLimitService := services.NewRateLimitService(db, limitConfig)
		loginAttemptCleanup = rateLimitService.CleanupExpired
		limiter = rateLimitService
		logger.Info("Login rate limiting backed by PostgreSQL")
	}

	// SMS gateway
	var smsGateway sms.Gateway
	if cfg.SMS.Mode == "production" {
		logger.Info("Initializing Dialog SMS Gateway in production mode...")
		smsGateway = sms.NewDialogGateway(sms.DialogConfig{
			URL:    cfg.SMS.URL,
			APIKey: cfg.SMS.ESMSQK,
			Mask:   cfg.SMS.Mask,
		})
	} else {
		logger.Info("SMS Gateway in development mode (no actual SMS will be sent)")
		smsGateway = sms.NewLogGateway(logger)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	accountRepository := database.NewAccountRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)

	listingCache := services.NewListingCache(cfg.Cache.ListingTTL)
	listingCache.Start()
	defer listingCache.Stop()

	auditService := services.NewAuditService(db, logger, cfg.Security.EnableAuditLog)
	notificationService := services.NewNotificationService(smsGateway, logger)

	authService := services.NewAuthService(
		accountRepository,
		refreshTokenRepository,
		jwtService,
		limiter,
		auditService,
		cfg.Security.BcryptCost,
		logger,
	)
	businessService := services.NewBusinessService(
		accountRepository,
		listingStore,
		auditService,
		notificationService,
		listingCache,
		logger,
	)
	adminService := services.NewAdminService(
		accountRepository,
		listingStore,
		refreshTokenRepository,
		authService,
		auditService,
		listingCache,
		logger,
	)
	listingService := services.NewListingService(listingStore, listingCache)
	exportService := services.NewExportService(listingStore)

	// Scheduled maintenance
	cronService := services.NewCronService(logger)
	if err := cronService.AddCleanup("refresh_tokens", services.RefreshTokenCleanupSchedule, refreshTokenRepository.DeleteExpired); err != nil {
		logger.Fatalf("Failed to schedule refresh token cleanup: %v", err)
	}
	if loginAttemptCleanup != nil {
		if err := cronService.AddCleanup("login_attempts", services.LoginAttemptCleanupSchedule, loginAttemptCleanup); err != nil {
			logger.Fatalf("Failed to schedule login attempt cleanup: %v", err)
		}
	}
	cronService.Start()

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	businessHandler := handlers.NewBusinessHandler(businessService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, exportService, auditService, logger)
	listingHandler := handlers.NewListingHandler(listingService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.RequestMeta())

	// Health check endpoints
	router.GET("/health", healthCheckHandler(logger, db, mongoClient, redisClient))

	api := router.Group("/api")
	{
		api.GET("/health", healthCheckHandler(logger, db, mongoClient, redisClient))

		requireAuth := middleware.AuthMiddleware(jwtService, logger)

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.PUT("/change-password", requireAuth, authHandler.ChangePassword)
		}

		owner := api.Group("/owner")
		owner.Use(requireAuth, middleware.RequireRole(models.RoleOwner), middleware.RequireOwner(accountRepository, logger))
		{
			owner.GET("/business", businessHandler.GetBusiness)
			owner.PUT("/business", businessHandler.UpdateBusiness)
			owner.POST("/business/complete", businessHandler.CompleteBusiness)
			owner.GET("/business/progress", businessHandler.GetProgress)
			owner.GET("/business/requirements", businessHandler.GetRequirements)
		}

		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(models.RoleAdmin), middleware.RequireActiveAccount(accountRepository, logger))
		{
			admin.POST("/owners", adminHandler.CreateOwner)
			admin.POST("/owners/:type", adminHandler.CreateOwner)
			admin.GET("/owners", adminHandler.ListOwners)

			admin.GET("/listings", adminHandler.ListListings)
			admin.GET("/listings/export", adminHandler.ExportListings)
			admin.PUT("/listings/status", adminHandler.UpdateListingStatus)
			admin.PUT("/listings/:type/:id/verify", adminHandler.VerifyListing)
			admin.DELETE("/listings/:type/:id", adminHandler.DeleteListing)

			admin.PUT("/users/:id/activate", adminHandler.ActivateUser)
			admin.PUT("/users/:id/deactivate", adminHandler.DeactivateUser)

			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}

		// Public browsing
		for _, t := range models.BusinessTypes {
			path := "/" + string(t) + "s"
			api.GET(path, listingHandler.List(t))
			api.GET(path+"/:id", listingHandler.Get(t))
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Failed to close Redis: %v", err)
		}
	}

	logger.Info("Server exited")
}

// healthCheckHandler reports the state of every backing store
func healthCheckHandler(logger *logrus.Logger, db database.DB, mongoClient *mongo.Client, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		check := func(name string, err error) {
			if err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = "unhealthy"
				logger.WithError(err).WithField("component", name).Warn("Health check failed")
				return
			}
			checks[name] = "healthy"
		}

		check("database", db.PingContext(ctx))
		if mongoClient != nil {
			check("mongodb", mongoClient.Ping(ctx, nil))
		}
		if redisClient != nil {
			check("redis", redisClient.Ping(ctx).Err())
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
