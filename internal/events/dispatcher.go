// internal/events/dispatcher.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/repository"
)

type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	ClaimTTL   time.Duration
	MaxRetries int
}

// Dispatcher claims outbox rows, runs the handler registered for each
// event type and optionally mirrors the event to a broker. Failed rows are
// retried on later passes and dead-lettered after MaxRetries.
type Dispatcher struct {
	outbox   repository.OutboxRepository
	mirror   Publisher
	cfg      DispatcherConfig
	mu       sync.RWMutex
	handlers map[string]Handler
}

type BatchStats struct {
	Claimed      int
	Handled      int
	Failed       int
	DeadLettered int
}

func NewDispatcher(outbox repository.OutboxRepository, cfg DispatcherConfig, mirror Publisher) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &Dispatcher{
		outbox:   outbox,
		mirror:   mirror,
		cfg:      cfg,
		handlers: make(map[string]Handler),
	}
}

func (d *Dispatcher) Register(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = h
}

func (d *Dispatcher) handler(eventType string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[eventType]
	return h, ok
}

// Run processes batches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Outbox dispatch iteration failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) ProcessOnce(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	claimToken := uuid.New()
	records, err := d.outbox.ClaimUnpublished(ctx, d.cfg.BatchSize, claimToken, time.Now().UTC().Add(d.cfg.ClaimTTL))
	if err != nil {
		return stats, err
	}
	stats.Claimed = len(records)

	for _, rec := range records {
		now := time.Now().UTC()
		entry := logrus.WithFields(logrus.Fields{
			"outbox_id":   rec.ID,
			"event_type":  rec.EventType,
			"retry_count": rec.RetryCount,
		})

		if rec.RetryCount >= d.cfg.MaxRetries {
			stats.DeadLettered++
			if err := d.outbox.MarkDeadLettered(ctx, rec.ID, claimToken, "retry threshold reached", now); err != nil {
				entry.WithError(err).Error("Failed to dead-letter outbox event")
			}
			continue
		}

		if err := d.handle(ctx, rec.EventType, rec.Payload); err != nil {
			stats.Failed++
			if rec.RetryCount+1 >= d.cfg.MaxRetries {
				stats.DeadLettered++
				entry.WithError(err).Error("Outbox event moved to dead letter")
				if markErr := d.outbox.MarkDeadLettered(ctx, rec.ID, claimToken, err.Error(), now); markErr != nil {
					entry.WithError(markErr).Error("Failed to dead-letter outbox event")
				}
				continue
			}
			entry.WithError(err).Warn("Outbox event failed, retry scheduled")
			if markErr := d.outbox.MarkFailed(ctx, rec.ID, claimToken, err.Error()); markErr != nil {
				entry.WithError(markErr).Error("Failed to record outbox failure")
			}
			continue
		}

		// The local handler already ran; a broker outage must not replay it
		if d.mirror != nil {
			if err := d.mirror.Publish(ctx, rec.EventType, rec.PartitionKey, rec.Payload); err != nil {
				entry.WithError(err).Warn("Failed to mirror outbox event")
			}
		}

		stats.Handled++
		if err := d.outbox.MarkPublished(ctx, rec.ID, claimToken, now); err != nil {
			entry.WithError(err).Error("Failed to mark outbox event published")
		}
	}

	if stats.Claimed > 0 {
		logrus.WithFields(logrus.Fields{
			"claimed":       stats.Claimed,
			"handled":       stats.Handled,
			"failed":        stats.Failed,
			"dead_lettered": stats.DeadLettered,
		}).Debug("Outbox batch processed")
	}
	return stats, nil
}

func (d *Dispatcher) handle(ctx context.Context, eventType string, payload []byte) (err error) {
	h, ok := d.handler(eventType)
	if !ok {
		return fmt.Errorf("no handler registered for %s", eventType)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", eventType, r)
		}
	}()
	return h(ctx, payload)
}

// Drain runs batches until the outbox has nothing claimable left or
// maxBatches is reached.
func (d *Dispatcher) Drain(ctx context.Context, maxBatches int) error {
	for i := 0; i < maxBatches; i++ {
		stats, err := d.ProcessOnce(ctx)
		if err != nil {
			return err
		}
		if stats.Claimed == 0 {
			return nil
		}
	}
	return nil
}
