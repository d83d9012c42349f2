package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableEndpoints = errors.New("no available webhook endpoints")
)

// Notification is the JSON body POSTed to the subscriber for each
// lifecycle event.
type Notification struct {
	Kind       events.Kind `json:"kind"`
	MessageID  int64       `json:"message_id"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Endpoint struct {
	name             string
	url              string
	client           *fasthttp.Client
	consecutiveFails atomic.Int32
	circuitOpenUntil atomic.Int64
}

func newEndpoint(name, url string, client *fasthttp.Client) *Endpoint {
	return &Endpoint{
		name:   name,
		url:    url,
		client: client,
	}
}

func (e *Endpoint) isAvailable() bool {
	return time.Now().Unix() > e.circuitOpenUntil.Load()
}

type EndpointConfig struct {
	Name string
	URL  string
}

type Config struct {
	// Endpoints are tried in order, the first is the primary, the rest
	// serve as fallbacks.
	Endpoints               []EndpointConfig
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Client delivers event notifications over HTTP. Endpoints that keep
// failing are taken out of rotation for the circuit breaker timeout.
type Client struct {
	config    *Config
	endpoints []*Endpoint
	mu        sync.RWMutex
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.CircuitBreakerThreshold == 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout == 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &Client{
		config:    config,
		endpoints: make([]*Endpoint, 0, len(config.Endpoints)),
	}

	for _, ec := range config.Endpoints {
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		}
		c.endpoints = append(c.endpoints, newEndpoint(ec.Name, ec.URL, httpClient))

		logger.Info("Webhook endpoint initialized", "name", ec.Name, "url", ec.URL)
	}

	return c, nil
}

// Deliver posts the notification, retrying across attempts and falling
// back to the next endpoint when the preferred one is unavailable.
func (c *Client) Deliver(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		endpoint, err := c.selectEndpoint()
		if err != nil {
			lastErr = err
			continue
		}

		if err := c.doRequest(ctx, endpoint, body); err != nil {
			c.recordFailure(endpoint)

			logger.Warn("Webhook delivery failed, retrying", "error", err, "endpoint", endpoint.name, "attempt", attempt+1)

			lastErr = err
			continue
		}

		endpoint.consecutiveFails.Store(0)

		logger.Info("Webhook delivered", "kind", n.Kind, "message_id", n.MessageID, "endpoint", endpoint.name)

		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// selectEndpoint returns the first available endpoint in configured order.
func (c *Client) selectEndpoint() (*Endpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, endpoint := range c.endpoints {
		if endpoint.isAvailable() {
			return endpoint, nil
		}
	}
	return nil, ErrNoAvailableEndpoints
}

func (c *Client) doRequest(ctx context.Context, endpoint *Endpoint, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := endpoint.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted && statusCode != fasthttp.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	return nil
}

func (c *Client) recordFailure(endpoint *Endpoint) {
	fails := endpoint.consecutiveFails.Add(1)
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		openUntil := time.Now().Add(c.config.CircuitBreakerTimeout).Unix()
		endpoint.circuitOpenUntil.Store(openUntil)

		logger.Warn("Webhook circuit breaker opened", "endpoint", endpoint.name, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *Client) Close() error {
	logger.Info("Webhook client closed")
	return nil
}
