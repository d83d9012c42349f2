package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/internal/webhook"
	"github.com/lkalantari/askout/pkg/logger"
	"github.com/lkalantari/askout/pkg/prom"
)

// WebhookClient delivers one notification to a subscriber.
type WebhookClient interface {
	Deliver(ctx context.Context, n *webhook.Notification) error
}

// EventProcessor turns stream deliveries into webhook notifications,
// with idempotency so redelivered events are pushed out at most once.
type EventProcessor struct {
	client      WebhookClient
	idempotency *IdempotencyService
}

func NewEventProcessor(client WebhookClient, idempotency *IdempotencyService) *EventProcessor {
	return &EventProcessor{
		client:      client,
		idempotency: idempotency,
	}
}

func (p *EventProcessor) GetType() string {
	return "lifecycle-event"
}

func (p *EventProcessor) Process(ctx context.Context, d *events.Delivery) error {
	// Step 1: Acquire processing lock and check idempotency.
	// The stream entry ID is stable across redeliveries, so it doubles
	// as the idempotency key.
	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, d.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// ACK to remove from stream
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("Max retries exceeded, dropping event", "event_id", d.ID, "kind", d.Event.Kind)
			prom.IncNotificationDelivered(string(d.Event.Kind), "dropped")
			return nil // ACK, the stream DLQ already has a copy
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is processing - NACK to retry later
			return errors.New("lock held by another consumer")
		}
		logger.Error("Failed to acquire lock", "event_id", d.ID, "error", err)
		return err
	}

	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	// Step 2: Deliver the notification
	start := time.Now()
	err = p.client.Deliver(ctx, &webhook.Notification{
		Kind:       d.Event.Kind,
		MessageID:  d.Event.MessageID,
		OccurredAt: d.Event.OccurredAt,
	})
	if err != nil {
		logger.Error("Failed to deliver notification", "event_id", d.ID, "kind", d.Event.Kind, "error", err)
		prom.IncNotificationDelivered(string(d.Event.Kind), "failed")
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", d.ID, "error", markErr)
		}
		return err // NACK to retry from stream
	}

	// Step 3: Record success
	prom.AddNotificationDeliveryDuration(time.Since(start).Seconds(), string(d.Event.Kind))
	prom.IncNotificationDelivered(string(d.Event.Kind), "delivered")

	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		logger.Error("Failed to mark success", "event_id", d.ID, "error", markErr)
		// Continue - the notification went out
	}

	return nil
}
