package booking

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"venuebook/internal/pkg/lock"
	"venuebook/internal/pkg/logger"
)

const sweepLockKey = "booking:expiry-scan"

// Sweeper runs the expiry scan on an interval. The lock keeps concurrent
// replicas from sweeping at the same time.
type Sweeper struct {
	service  *Service
	locker   lock.Locker
	interval time.Duration
	log      logrus.FieldLogger
	stopCh   chan struct{}
}

func NewSweeper(service *Service, locker lock.Locker, interval time.Duration, log logrus.FieldLogger) *Sweeper {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Sweeper{
		service:  service,
		locker:   locker,
		interval: interval,
		log:      logger.OrDiscard(log),
		stopCh:   make(chan struct{}),
	}
}

// RunOnce sweeps unless another runner holds the lock. The bool reports
// whether this call did the sweep.
func (w *Sweeper) RunOnce(ctx context.Context) (ScanReport, bool, error) {
	ttl := w.interval
	if ttl <= 0 {
		ttl = time.Minute
	}
	release, err := w.locker.Acquire(ctx, sweepLockKey, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			w.log.Debug("expiry scan skipped: another runner holds the lock")
			return ScanReport{}, false, nil
		}
		return ScanReport{}, false, err
	}
	defer release()

	report, err := w.service.RunExpiryScan(ctx)
	return report, true, err
}

// Start runs the sweep on a ticker until ctx is done or Stop is called.
func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)

	go func() {
		defer ticker.Stop()

		w.runLogged(ctx)
		for {
			select {
			case <-ticker.C:
				w.runLogged(ctx)
			case <-w.stopCh:
				w.log.Info("expiry sweeper stopped")
				return
			case <-ctx.Done():
				w.log.Info("expiry sweeper stopped")
				return
			}
		}
	}()

	w.log.WithField("interval", w.interval.String()).Info("expiry sweeper started")
}

func (w *Sweeper) Stop() {
	close(w.stopCh)
}

func (w *Sweeper) runLogged(ctx context.Context) {
	if _, _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.log.WithError(err).Error("expiry scan failed")
	}
}
