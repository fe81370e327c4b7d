package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/middleware"
	"venuebook/internal/modules/auth"
	"venuebook/internal/modules/booking"
	"venuebook/internal/modules/catalog"
	"venuebook/internal/modules/notification"
	"venuebook/internal/pkg/clock"
	jwtsvc "venuebook/internal/pkg/jwt"
	"venuebook/internal/pkg/lock"
	"venuebook/internal/pkg/logger"
	"venuebook/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logger.New(logger.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.IsProdLike(),
		File:  cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Log: log})
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}

	var rdb *redis.Client
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		rdb, err = lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis connect failed")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "venuebook:lock:")
		log.Info("redis connected: distributed sweep lock and rate limiter enabled")
	}

	clk := clock.NewSystem()
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	// Repositories
	store := repository.NewStore(db)
	userRepo := repository.NewUserRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	hallRepo := repository.NewHallRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	blockedRepo := repository.NewBlockedDateRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	authService := auth.NewService(userRepo, j)
	catalogService := catalog.NewService(venueRepo, hallRepo, blockedRepo)
	bookingService := booking.NewService(booking.Deps{
		Tx:       store,
		Bookings: bookingRepo,
		Halls:    hallRepo,
		Venues:   venueRepo,
		Blocked:  blockedRepo,
		Outbox:   outboxRepo,
		Clock:    clk,
		Log:      log,
	}, booking.Config{
		ExpiryLookahead:     cfg.Booking.ExpiryLookahead,
		PaymentGracePeriod:  cfg.Booking.PaymentGracePeriod,
		AutoCompleteEnabled: cfg.Booking.AutoCompleteEnabled,
		PublicBaseURL:       cfg.PublicBaseURL,
	})
	sweeper := booking.NewSweeper(bookingService, locker, cfg.Booking.ScanInterval, log)

	hub := notification.NewHub()
	defer hub.Close()
	channels := []notification.Channel{
		notification.NewInboxChannel(notificationRepo),
		notification.NewHubChannel(hub),
	}
	if cfg.SMTP.Enabled() {
		channels = append(channels, notification.NewEmailChannel(cfg.SMTP, userRepo))
		log.WithField("host", cfg.SMTP.Host).Info("email notifications enabled")
	}
	if cfg.Kafka.Enabled() {
		kc, err := notification.NewKafkaChannel(cfg.Kafka)
		if err != nil {
			log.WithError(err).Fatal("kafka channel")
		}
		defer kc.Close()
		channels = append(channels, kc)
		log.WithField("topic", cfg.Kafka.Topic).Info("kafka lifecycle events enabled")
	}
	dispatcher := notification.NewDispatcher(outboxRepo, channels, clk, log, notification.DispatcherConfig{
		Interval:    cfg.Outbox.Interval,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	notificationService := notification.NewService(notificationRepo, outboxRepo, clk, log)

	// Handlers
	authHandler := auth.NewHandler(authService, j.TTL())
	catalogHandler := catalog.NewHandler(catalogService)
	bookingHandler := booking.NewHandler(bookingService, sweeper)
	notificationHandler := notification.NewHandler(notificationService, hub, log)

	limiterStore, err := middleware.NewLimiterStore(rdb, "venuebook:ratelimit")
	if err != nil {
		log.WithError(err).Fatal("rate limiter store")
	}
	rateLimit, err := middleware.RateLimit(limiterStore, cfg.RateLimit)
	if err != nil {
		log.WithError(err).Fatal("rate limiter")
	}

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_users": hub.GetOnlineCount()})
	})

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(rateLimit)
		authHandler.RegisterPublicRoutes(public)
		catalogHandler.RegisterPublicRoutes(public)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j), rateLimit)
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)

			owners := protected.Group("")
			owners.Use(middleware.RequireRole(domain.RoleVenueHolder, domain.RoleAdmin))
			catalogHandler.RegisterProtectedRoutes(owners)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			bookingHandler.RegisterAdminRoutes(admin)
		}
	}

	if cfg.Booking.ScanEnabled {
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
