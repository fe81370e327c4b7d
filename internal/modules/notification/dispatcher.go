package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/logger"
)

type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// ClaimTTL is how long a claimed batch stays leased to this worker.
	ClaimTTL time.Duration
}

// Dispatcher drains the outbox into the configured channels. A delivery
// failure never touches the booking that produced the message.
type Dispatcher struct {
	outbox   OutboxRepository
	channels []Channel
	clock    clock.Clock
	log      logrus.FieldLogger
	cfg      DispatcherConfig

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewDispatcher(outbox OutboxRepository, channels []Channel, clk clock.Clock, log logrus.FieldLogger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = time.Minute
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Dispatcher{
		outbox:   outbox,
		channels: channels,
		clock:    clk,
		log:      logger.OrDiscard(log).WithField("component", "outbox_dispatcher"),
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// DispatchReport counts the outcome of one ProcessOnce call.
type DispatchReport struct {
	Claimed      int `json:"claimed"`
	Delivered    int `json:"delivered"`
	Retried      int `json:"retried"`
	DeadLettered int `json:"dead_lettered"`
}

// ProcessOnce claims one batch and delivers it.
func (d *Dispatcher) ProcessOnce(ctx context.Context) (DispatchReport, error) {
	var rep DispatchReport

	token := uuid.NewString()
	now := d.clock.Now()
	msgs, err := d.outbox.Claim(ctx, d.cfg.BatchSize, token, now, now.Add(d.cfg.ClaimTTL))
	if err != nil {
		return rep, fmt.Errorf("claim outbox: %w", err)
	}
	rep.Claimed = len(msgs)

	for _, msg := range msgs {
		deliverErr := d.deliver(ctx, msg)
		at := d.clock.Now()

		switch {
		case deliverErr == nil:
			if err := d.outbox.MarkDelivered(ctx, msg.ID, token, at); err != nil {
				return rep, fmt.Errorf("mark delivered %s: %w", msg.ID, err)
			}
			rep.Delivered++

		case msg.Attempts+1 >= d.cfg.MaxAttempts:
			if err := d.outbox.MarkDeadLettered(ctx, msg.ID, token, deliverErr.Error(), at); err != nil {
				return rep, fmt.Errorf("dead-letter %s: %w", msg.ID, err)
			}
			d.log.WithFields(logrus.Fields{
				"outbox_id": msg.ID,
				"user_id":   msg.UserID,
				"type":      msg.Type,
				"attempts":  msg.Attempts + 1,
			}).WithError(deliverErr).Error("notification dead-lettered")
			rep.DeadLettered++

		default:
			if err := d.outbox.MarkFailed(ctx, msg.ID, token, deliverErr.Error()); err != nil {
				return rep, fmt.Errorf("mark failed %s: %w", msg.ID, err)
			}
			d.log.WithFields(logrus.Fields{
				"outbox_id": msg.ID,
				"attempts":  msg.Attempts + 1,
			}).WithError(deliverErr).Warn("notification delivery failed, will retry")
			rep.Retried++
		}
	}
	return rep, nil
}

// deliver fans msg out to every channel. Best-effort channels only see the
// first attempt so retries do not repeat pushes or emails.
func (d *Dispatcher) deliver(ctx context.Context, msg domain.OutboxMessage) error {
	var durableErr error
	for _, ch := range d.channels {
		if !ch.Durable() && msg.Attempts > 0 {
			continue
		}
		err := ch.Deliver(ctx, msg)
		if err == nil {
			continue
		}
		if ch.Durable() {
			durableErr = errors.Join(durableErr, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		d.log.WithFields(logrus.Fields{
			"outbox_id": msg.ID,
			"channel":   ch.Name(),
		}).WithError(err).Warn("best-effort delivery failed")
	}
	return durableErr
}

// Start runs ProcessOnce every interval until ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.runLogged(ctx)
			case <-d.stopCh:
				d.log.Info("outbox dispatcher stopped")
				return
			case <-ctx.Done():
				d.log.Info("outbox dispatcher stopped")
				return
			}
		}
	}()

	d.log.WithField("interval", d.cfg.Interval.String()).Info("outbox dispatcher started")
}

func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *Dispatcher) runLogged(ctx context.Context) {
	rep, err := d.ProcessOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.log.WithError(err).Error("outbox dispatch failed")
		}
		return
	}
	if rep.Claimed > 0 {
		d.log.WithFields(logrus.Fields{
			"claimed":       rep.Claimed,
			"delivered":     rep.Delivered,
			"retried":       rep.Retried,
			"dead_lettered": rep.DeadLettered,
		}).Debug("outbox batch processed")
	}
}
