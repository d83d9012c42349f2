package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lkalantari/askout/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "config is required")
	})

	t.Run("empty endpoints returns error", func(t *testing.T) {
		config := &Config{
			Endpoints: []EndpointConfig{},
			Timeout:   5 * time.Second,
		}
		client, err := NewClient(config)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "at least one endpoint is required")
	})

	t.Run("valid config creates client", func(t *testing.T) {
		config := &Config{
			Endpoints: []EndpointConfig{
				{Name: "primary", URL: "http://localhost:8081/hook"},
			},
			Timeout:                 5 * time.Second,
			MaxRetries:              3,
			RetryDelay:              time.Second,
			MaxConns:                100,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   30 * time.Second,
		}
		client, err := NewClient(config)
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Len(t, client.endpoints, 1)

		client.Close()
	})

	t.Run("zero values get defaults", func(t *testing.T) {
		config := &Config{
			Endpoints: []EndpointConfig{
				{Name: "primary", URL: "http://localhost:8081/hook"},
			},
		}
		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 5*time.Second, client.config.Timeout)
		assert.Equal(t, 500*time.Millisecond, client.config.RetryDelay)
		assert.Equal(t, 5, client.config.CircuitBreakerThreshold)
		assert.Equal(t, 30*time.Second, client.config.CircuitBreakerTimeout)
	})
}

func TestClient_SelectEndpoint(t *testing.T) {
	config := &Config{
		Endpoints: []EndpointConfig{
			{Name: "primary", URL: "http://localhost:8081/hook"},
			{Name: "backup", URL: "http://localhost:8082/hook"},
		},
		Timeout:                 5 * time.Second,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   10 * time.Second,
	}

	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	t.Run("prefers the primary while available", func(t *testing.T) {
		endpoint, err := client.selectEndpoint()
		require.NoError(t, err)
		assert.Equal(t, "primary", endpoint.name)
	})

	t.Run("falls back when the primary circuit is open", func(t *testing.T) {
		client.endpoints[0].circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())

		endpoint, err := client.selectEndpoint()
		require.NoError(t, err)
		assert.Equal(t, "backup", endpoint.name)

		client.endpoints[0].circuitOpenUntil.Store(0)
	})

	t.Run("returns error when all circuits are open", func(t *testing.T) {
		for _, e := range client.endpoints {
			e.circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())
		}

		endpoint, err := client.selectEndpoint()
		assert.Nil(t, endpoint)
		assert.Equal(t, ErrNoAvailableEndpoints, err)

		for _, e := range client.endpoints {
			e.circuitOpenUntil.Store(0)
		}
	})

	t.Run("primary comes back once the circuit times out", func(t *testing.T) {
		client.endpoints[0].circuitOpenUntil.Store(time.Now().Add(-1 * time.Second).Unix())

		endpoint, err := client.selectEndpoint()
		require.NoError(t, err)
		assert.Equal(t, "primary", endpoint.name)
	})
}

func TestClient_RecordFailure(t *testing.T) {
	config := &Config{
		Endpoints: []EndpointConfig{
			{Name: "primary", URL: "http://localhost:8081/hook"},
		},
		Timeout:                 5 * time.Second,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   10 * time.Second,
	}

	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	endpoint := client.endpoints[0]

	t.Run("does not open circuit below threshold", func(t *testing.T) {
		client.recordFailure(endpoint)
		client.recordFailure(endpoint)

		assert.True(t, endpoint.isAvailable())
	})

	t.Run("opens circuit at threshold", func(t *testing.T) {
		client.recordFailure(endpoint)

		assert.False(t, endpoint.isAvailable())
		assert.Greater(t, endpoint.circuitOpenUntil.Load(), time.Now().Unix())
	})
}

func TestNotification_Marshal(t *testing.T) {
	n := &Notification{
		Kind:       events.KindResponseSubmitted,
		MessageID:  42,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(n)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded Notification
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, n.Kind, decoded.Kind)
	assert.Equal(t, n.MessageID, decoded.MessageID)
}
