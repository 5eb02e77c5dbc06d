// Package kick implements the client for the operator-run Kick bridge
// service. The core never speaks the Kick chat protocol itself; it trusts
// the bridge to forward messages into the network.
package kick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/metrics"
)

// SecretHeader carries the bridge webhook secret when one is configured.
const SecretHeader = "X-Bridge-Secret"

const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

type bridgePayload struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// BridgeClient posts messages to a tenant's configured bridge endpoint.
// Calls run through a circuit breaker per endpoint: a bridge that keeps
// failing is given time to recover instead of being hammered by every
// broadcast, while other tenants' healthy bridges stay reachable.
type BridgeClient struct {
	httpClient *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewBridgeClient(timeout time.Duration) *BridgeClient {
	return &BridgeClient{
		httpClient: &http.Client{Timeout: timeout},
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breakerFor returns the circuit breaker guarding one webhook URL, creating
// it on first use. Endpoints are tenant-configured, so the map stays bounded
// by the tenant population.
func (c *BridgeClient) breakerFor(url string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if breaker, ok := c.breakers[url]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kick-bridge",
		Timeout: breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			slog.Info("Kick bridge circuit state changed",
				"endpoint", url, "from", from.String(), "to", to.String())
			if from == gobreaker.StateClosed && to != gobreaker.StateClosed {
				metrics.BridgeOpenCircuits.Inc()
			}
			if from != gobreaker.StateClosed && to == gobreaker.StateClosed {
				metrics.BridgeOpenCircuits.Dec()
			}
		},
	})
	c.breakers[url] = breaker
	return breaker
}

// Send forwards one message for one channel through the bridge. A non-2xx
// response is a failure carrying the status code.
func (c *BridgeClient) Send(ctx context.Context, bridge domain.KickBridge, channel, message string) (domain.SendReceipt, error) {
	receipt := domain.SendReceipt{Platform: "kick", Channel: channel}

	if strings.TrimSpace(bridge.WebhookURL) == "" {
		return receipt, apperrors.ValidationError("kick bridge webhook URL missing")
	}
	if strings.TrimSpace(channel) == "" {
		return receipt, apperrors.ValidationError("kick channel missing")
	}
	if strings.TrimSpace(message) == "" {
		return receipt, apperrors.ValidationError("message is empty")
	}

	_, err := c.breakerFor(bridge.WebhookURL).Execute(func() (any, error) {
		return nil, c.post(ctx, bridge, channel, message)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return receipt, apperrors.ExternalError("kick bridge unavailable", err).
				WithField("channel", channel)
		}
		return receipt, err
	}
	return receipt, nil
}

func (c *BridgeClient) post(ctx context.Context, bridge domain.KickBridge, channel, message string) error {
	body, err := json.Marshal(bridgePayload{Channel: channel, Message: message})
	if err != nil {
		return apperrors.InternalError("failed to encode bridge payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bridge.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.ValidationError("invalid kick bridge webhook URL").WithField("url", bridge.WebhookURL)
	}
	req.Header.Set("Content-Type", "application/json")
	if bridge.WebhookSecret != "" {
		req.Header.Set(SecretHeader, bridge.WebhookSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BridgeRequestsTotal.WithLabelValues("transport_error").Inc()
		return apperrors.ExternalError("kick bridge request failed", err).WithField("channel", channel)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	metrics.BridgeRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.ExternalError(fmt.Sprintf("kick bridge returned status %d", resp.StatusCode), nil).
			WithField("channel", channel).
			WithField("status", resp.StatusCode)
	}
	return nil
}
