package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lkalantari/askout/internal/config"
	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/pkg/logger"
	"github.com/lkalantari/askout/pkg/redis"
	"github.com/lkalantari/askout/pkg/worker"
)

const ProcessingTimeout = time.Second * 5
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

const consumerInstances = 4
const workerCount = 20

// Processor handles one stream delivery.
type Processor interface {
	Process(ctx context.Context, d *events.Delivery) error
	GetType() string
}

// NotifierService consumes the lifecycle event stream and fans the
// deliveries out over a worker pool.
type NotifierService struct {
	adapter   redis.RedisAdapter
	streams   []*events.Stream
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewNotifierService(redisAdapter redis.RedisAdapter) (*NotifierService, error) {
	ctx, cancel := context.WithCancel(context.Background())
	service := &NotifierService{
		adapter: redisAdapter,
		streams: make([]*events.Stream, 0),
		metrics: NewServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(10_000, workerCount, nil),
	}
	return service, nil
}

// RegisterProcessor registers the event processor
func (s *NotifierService) RegisterProcessor(processor Processor) {
	s.processor = processor
	logger.Info("Registered processor", "type", processor.GetType())
}

// Start starts the notifier service
func (s *NotifierService) Start() error {
	logger.Info("Starting Notifier Service...")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("Worker manager stopped", "error", err)
		}
	}()

	// Create stream consumers
	for i := 0; i < consumerInstances; i++ {
		streamConfig := events.StreamConfig{
			Name:              config.Get().QueueName,
			ConsumerGroup:     config.Get().QueueConsumerGroup,
			ConsumerName:      config.Get().QueueConsumerName,
			MaxRetries:        config.Get().QueueMaxRetries,
			VisibilityTimeout: config.Get().QueueVisibilityTimeout,
			PollInterval:      config.Get().QueuePollInterval,
			BatchSize:         config.Get().QueueBatchSize,
			MaxLen:            config.Get().QueueMaxLen,
			EnableDLQ:         config.Get().QueueEnableDLQ,
		}
		streamConfig.ConsumerName = fmt.Sprintf("%s-instance-%d", streamConfig.ConsumerName, i)

		st, err := events.NewStream(s.adapter, streamConfig)
		if err != nil {
			return fmt.Errorf("failed to create stream consumer %d: %w", i, err)
		}

		if err := st.Consume(s.deliveryHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.streams = append(s.streams, st)
		logger.Info("Started consumer instance", "instance", i)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("Notifier Service started", "consumers", len(s.streams), "workers", workerCount)
	return nil
}

func (s *NotifierService) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *NotifierService) reportMetrics() {
	stats := s.metrics.GetStats()

	logger.Info("Metrics", "total_processed", stats["total_processed"], "total_failed", stats["total_failed"], "rate_per_second", stats["rate_per_second"], "avg_duration_ms", stats["avg_duration_ms"], "uptime_seconds", stats["uptime_seconds"])

	for i, st := range s.streams {
		if sStats, err := st.GetStats(); err == nil {
			logger.Info("Stream stats", "stream", i, "total", sStats.TotalEvents, "pending", sStats.PendingEvents)
		}
	}
}

func (s *NotifierService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *NotifierService) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("HEALTH CHECK FAILED: Redis connection error", "error", err)
		return
	}

	for i, st := range s.streams {
		stats, err := st.GetStats()
		if err != nil {
			logger.Warn("HEALTH CHECK WARNING: Stream stats unavailable", "stream", i, "error", err)
			continue
		}

		if stats.PendingEvents > 10000 {
			logger.Warn("HEALTH CHECK WARNING: Stream has high lag", "stream", i, "pending_events", stats.PendingEvents)
		}
	}

	logger.Info("HEALTH CHECK: OK - Service healthy")
}

// Stop gracefully stops the service
func (s *NotifierService) Stop() {
	logger.Info("Shutting down Notifier Service...")

	s.cancel()

	timeout := ShutdownTimeout
	stopChan := make(chan bool, len(s.streams))

	for i, st := range s.streams {
		go func(index int, stream *events.Stream) {
			if err := stream.Stop(timeout); err != nil {
				logger.Error("Error stopping stream", "stream", index, "error", err)
			}
			stopChan <- true
		}(i, st)
	}

	for range s.streams {
		select {
		case <-stopChan:
		case <-time.After(timeout + 5*time.Second):
			logger.Warn("Timeout waiting for streams to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("Notifier Service stopped")
}

type jobResult struct {
	delivery   *events.Delivery
	resultChan chan error
	ctx        context.Context
}

// deliveryHandler receives deliveries from the stream and enqueues them
// to the worker pool, blocking until the worker reports back so the
// stream's ack decision follows the real outcome.
func (s *NotifierService) deliveryHandler(ctx context.Context, d *events.Delivery) error {
	resultChan := make(chan error, 1)

	msgCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	job := &jobResult{
		delivery:   d,
		resultChan: resultChan,
		ctx:        msgCtx,
	}

	s.worker.Enqueue(job)

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to process delivery: %w", msgCtx.Err())
	}
}

func (s *NotifierService) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("Invalid job type in worker", "worker", workerIndex)
		return
	}

	d := jobRes.delivery
	start := time.Now()
	var resultErr error

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("Job context cancelled before processing started", "worker", workerIndex)
		return
	default:
	}

	if s.processor == nil {
		logger.Info("No processor registered", "worker", workerIndex)
		s.metrics.RecordFailure()
		resultErr = nil // ACK - nothing will change on retry
	} else {
		if err := s.processor.Process(jobRes.ctx, d); err != nil {
			s.metrics.RecordFailure()
			logger.Error("Failed to process delivery", "worker", workerIndex, "error", err)
			resultErr = err // NACK
		} else {
			s.metrics.RecordSuccess(time.Since(start))
			resultErr = nil // ACK
		}
	}

	// If deliveryHandler timed out, the channel may have no receiver
	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("Context cancelled while sending result", "worker", workerIndex)
	}
}
