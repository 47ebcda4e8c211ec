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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/room-booking-api/api/swagger"
	"github.com/noah-isme/room-booking-api/internal/handler"
	"github.com/noah-isme/room-booking-api/internal/middleware"
	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/internal/repository"
	"github.com/noah-isme/room-booking-api/internal/service"
	"github.com/noah-isme/room-booking-api/pkg/cache"
	"github.com/noah-isme/room-booking-api/pkg/config"
	"github.com/noah-isme/room-booking-api/pkg/database"
	"github.com/noah-isme/room-booking-api/pkg/jobs"
	"github.com/noah-isme/room-booking-api/pkg/lock"
	"github.com/noah-isme/room-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/room-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/room-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

const (
	shutdownTimeout = 10 * time.Second
	auditBuffer     = 256
	auditRetryDelay = 500 * time.Millisecond
)

// @title Room Booking API
// @version 1.0.0
// @description Hourly room slot reservations with weekly timetables
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Booking.LockBackend == config.LockBackendRedis || cfg.Timetable.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	codec := slotid.New(cfg.Booking.Location)

	slotRepo := repository.NewSlotRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled)

	auditSvc := service.NewAuditService(auditRepo, metrics, logr)
	auditQueue := jobs.NewQueue(service.AuditJobType, auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: auditBuffer,
		MaxRetries: cfg.Audit.Retries,
		RetryDelay: auditRetryDelay,
		Logger:     logr,
	})
	auditSvc.AttachQueue(auditQueue)
	auditQueue.Start(ctx)
	defer auditQueue.Stop()

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Booking.LockBackend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(redisClient)
	}

	roomSvc := service.NewRoomService(roomRepo, membershipRepo, logr)
	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	timetableSvc := service.NewTimetableService(roomSvc, slotRepo, cacheSvc, codec, logr, service.TimetableConfig{
		OpenWeeks:  cfg.Booking.OpenWeeks,
		WeekAnchor: cfg.Booking.WeekAnchorDate,
		CacheTTL:   cfg.Timetable.CacheTTL,
	})
	bookingSvc := service.NewBookingService(roomSvc, slotRepo, locker, codec, timetableSvc, auditSvc, metrics, validate, logr, service.BookingConfig{
		OpenWeeks: cfg.Booking.OpenWeeks,
		LockTTL:   cfg.Booking.LockTTL,
	})
	exportSvc := service.NewExportService(timetableSvc, logr)

	checks := []handler.ReadinessCheck{{Name: "postgres", Probe: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	authHandler := handler.NewAuthHandler(authSvc)
	roomHandler := handler.NewRoomHandler(roomSvc, timetableSvc, exportSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, checks...)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := middleware.NewRateLimiter(cfg.Booking.RateLimit, cfg.Booking.RateBurst)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/rooms", roomHandler.List)
	secured.GET("/rooms/:id/timetable", roomHandler.Timetable)
	secured.GET("/rooms/:id/timetable/export", roomHandler.Export)
	secured.POST("/slots/:key/occupy", middleware.RateLimit(limiter), bookingHandler.Occupy)
	secured.DELETE("/slots/:key", middleware.RateLimit(limiter), bookingHandler.Cancel)
	secured.POST("/slots/:key/check-in", bookingHandler.CheckIn)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	admin.POST("/slots/:key/disable", bookingHandler.Disable)
	admin.DELETE("/slots/:key/disable", bookingHandler.Enable)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
