package events

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/lkalantari/askout/pkg/redis"
)

// Delivery is one event handed to a consumer, with redelivery bookkeeping.
type Delivery struct {
	ID       string
	Event    Event
	Attempts int
}

// Handler processes deliveries.
// Return values:
//   - nil: Success - delivery will be acked
//   - error: Failure - delivery stays pending and will be redelivered
type Handler func(ctx context.Context, d *Delivery) error

type StreamConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Stream is the redis-streams event bus between the API and the notifier.
// Consumers run in a group with at-least-once delivery, deliveries left
// pending past the visibility timeout are claimed back and retried.
type Stream struct {
	adapter redis.RedisAdapter
	config  StreamConfig
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type StreamStats struct {
	TotalEvents   int64
	PendingEvents int64
	ConsumerCount int64
}

func NewStream(adapter redis.RedisAdapter, config StreamConfig) (*Stream, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Stream{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := s.initConsumerGroup(); err != nil {
		// Group might already exist, which is fine
	}

	return s, nil
}

func (s *Stream) initConsumerGroup() error {
	return s.adapter.XGroupCreateMkStream(
		s.config.Name,
		s.config.ConsumerGroup,
		"0",
	)
}

// Publish appends an event to the stream.
func (s *Stream) Publish(ctx context.Context, e Event) (string, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	values := map[string]interface{}{
		"kind":        string(e.Kind),
		"message_id":  e.MessageID,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
		"attempts":    0,
	}

	id, err := s.adapter.XAdd(s.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	if s.config.MaxLen > 0 {
		_ = s.adapter.XTrimApprox(s.config.Name, s.config.MaxLen)
	}

	return id, nil
}

// Consume starts consuming deliveries until Stop is called.
func (s *Stream) Consume(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	s.handler = handler
	s.wg.Add(1)

	go s.consumeLoop()

	return nil
}

func (s *Stream) consumeLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processDeliveries()
			s.claimStuckDeliveries()
		}
	}
}

func (s *Stream) processDeliveries() {
	messages, err := s.adapter.XReadGroup(
		s.config.ConsumerGroup,
		s.config.ConsumerName,
		s.config.Name,
		">",
		s.config.BatchSize,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		s.handleDelivery(s.toDelivery(streamMsg))
	}
}

func (s *Stream) claimStuckDeliveries() {
	pending, err := s.adapter.XPending(s.config.Name, s.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := s.adapter.XPendingExt(
		s.config.Name,
		s.config.ConsumerGroup,
		"-",
		"+",
		100,
	)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	var idsToReclaim []string
	for _, msg := range pendingExt {
		if msg.Idle >= s.config.VisibilityTimeout {
			idsToReclaim = append(idsToReclaim, msg.ID)
		}
	}

	if len(idsToReclaim) == 0 {
		return
	}

	messages, err := s.adapter.XClaim(
		s.config.Name,
		s.config.ConsumerGroup,
		s.config.ConsumerName,
		s.config.VisibilityTimeout,
		idsToReclaim...,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		d := s.toDelivery(streamMsg)
		d.Attempts++
		s.handleDelivery(d)
	}
}

func (s *Stream) handleDelivery(d *Delivery) {
	if d.Attempts >= s.config.MaxRetries {
		s.moveToDeadLetter(d)
		s.ack(d.ID)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.config.VisibilityTimeout)
	defer cancel()

	if err := s.handler(ctx, d); err != nil {
		// don't ack, delivery will be reclaimed and retried
		return
	}

	s.ack(d.ID)
}

func (s *Stream) ack(deliveryID string) error {
	return s.adapter.XAck(s.config.Name, s.config.ConsumerGroup, deliveryID)
}

func (s *Stream) moveToDeadLetter(d *Delivery) {
	if !s.config.EnableDLQ {
		return
	}

	dlqName := s.config.Name + ":dlq"

	values := map[string]interface{}{
		"kind":            string(d.Event.Kind),
		"message_id":      d.Event.MessageID,
		"occurred_at":     d.Event.OccurredAt.Format(time.RFC3339Nano),
		"original_id":     d.ID,
		"attempts":        d.Attempts,
		"failed_at":       time.Now().Unix(),
		"original_stream": s.config.Name,
	}

	_, _ = s.adapter.XAdd(dlqName, values)
}

func (s *Stream) toDelivery(streamMsg redis.StreamMessage) *Delivery {
	d := &Delivery{
		ID: streamMsg.ID,
	}

	for k, v := range streamMsg.Values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "kind":
			d.Event.Kind = Kind(raw)
		case "message_id":
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				d.Event.MessageID = id
			}
		case "occurred_at":
			if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				d.Event.OccurredAt = ts
			}
		case "attempts":
			if n, err := strconv.Atoi(raw); err == nil {
				d.Attempts = n
			}
		}
	}

	if d.Event.OccurredAt.IsZero() {
		d.Event.OccurredAt = time.Now()
	}

	return d
}

func (s *Stream) Stop(timeout time.Duration) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for stream to stop")
	}
}

func (s *Stream) GetStats() (*StreamStats, error) {
	total, err := s.adapter.XLen(s.config.Name)
	if err != nil {
		return nil, err
	}

	pending, err := s.adapter.XPending(s.config.Name, s.config.ConsumerGroup)
	if err != nil {
		pending = nil
	}

	stats := &StreamStats{
		TotalEvents: total,
	}

	if pending != nil {
		stats.PendingEvents = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}

	return stats, nil
}
