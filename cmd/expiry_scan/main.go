// Command expiry_scan runs one booking expiry sweep and exits. It is meant to
// be started by an external scheduler when the API's own sweeper is disabled.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/modules/booking"
	"venuebook/internal/modules/notification"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/lock"
	"venuebook/internal/pkg/logger"
	"venuebook/internal/repository"
)

func main() {
	retention := flag.Duration("cleanup-retention", 0, "also prune read notifications and delivered outbox rows older than this (0 disables)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.IsProdLike(), File: cfg.LogFile})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Log: log})
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis connect failed")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "venuebook:lock:")
	}

	clk := clock.NewSystem()
	outboxRepo := repository.NewOutboxRepository(db)
	svc := booking.NewService(booking.Deps{
		Tx:       repository.NewStore(db),
		Bookings: repository.NewBookingRepository(db),
		Halls:    repository.NewHallRepository(db),
		Venues:   repository.NewVenueRepository(db),
		Blocked:  repository.NewBlockedDateRepository(db),
		Outbox:   outboxRepo,
		Clock:    clk,
		Log:      log,
	}, booking.Config{
		ExpiryLookahead:     cfg.Booking.ExpiryLookahead,
		PaymentGracePeriod:  cfg.Booking.PaymentGracePeriod,
		AutoCompleteEnabled: cfg.Booking.AutoCompleteEnabled,
		PublicBaseURL:       cfg.PublicBaseURL,
	})

	report, ran, err := booking.NewSweeper(svc, locker, cfg.Booking.ScanInterval, log).RunOnce(ctx)
	if err != nil {
		log.WithError(err).Error("expiry scan failed")
		os.Exit(1)
	}
	if !ran {
		log.Info("expiry scan skipped: another runner holds the lock")
		return
	}
	log.WithFields(logrus.Fields{
		"scanned":   report.Scanned,
		"reminded":  report.Reminded,
		"expired":   report.Expired,
		"completed": report.Completed,
		"failed":    report.Failed,
	}).Info("expiry scan completed")

	if *retention > 0 {
		ns := notification.NewService(repository.NewNotificationRepository(db), outboxRepo, clk, log)
		if _, err := ns.Cleanup(ctx, *retention); err != nil {
			log.WithError(err).Error("notification cleanup failed")
			os.Exit(1)
		}
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
