package kick

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

func TestSend_PostsPayloadWithSecret(t *testing.T) {
	var gotPayload bridgePayload
	var gotSecret, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(SecretHeader)
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewBridgeClient(time.Second)
	bridge := domain.KickBridge{WebhookURL: srv.URL, WebhookSecret: "s3cret"}

	receipt, err := client.Send(context.Background(), bridge, "mychan", "promo text")

	require.NoError(t, err)
	assert.Equal(t, domain.SendReceipt{Platform: "kick", Channel: "mychan"}, receipt)
	assert.Equal(t, bridgePayload{Channel: "mychan", Message: "promo text"}, gotPayload)
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "application/json", gotContentType)
}

func TestSend_NoSecretHeaderWhenUnset(t *testing.T) {
	var secretPresent bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, secretPresent = r.Header[SecretHeader]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewBridgeClient(time.Second)
	_, err := client.Send(context.Background(), domain.KickBridge{WebhookURL: srv.URL}, "chan", "msg")

	require.NoError(t, err)
	assert.False(t, secretPresent)
}

func TestSend_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewBridgeClient(time.Second)
	_, err := client.Send(context.Background(), domain.KickBridge{WebhookURL: srv.URL}, "chan", "msg")

	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Equal(t, apperrors.TypeExternal, structuredErr.Type)
	assert.Equal(t, http.StatusForbidden, structuredErr.Context["status"])
}

func TestSend_MissingWebhookURL(t *testing.T) {
	client := NewBridgeClient(time.Second)

	_, err := client.Send(context.Background(), domain.KickBridge{}, "chan", "msg")

	assert.True(t, apperrors.IsValidation(err))
}

func TestSend_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewBridgeClient(time.Second)
	bridge := domain.KickBridge{WebhookURL: srv.URL}

	for range breakerFailureThreshold {
		_, err := client.Send(context.Background(), bridge, "chan", "msg")
		require.Error(t, err)
	}

	// Circuit is open now: the call fails fast without reaching the bridge.
	_, err := client.Send(context.Background(), bridge, "chan", "msg")
	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Equal(t, apperrors.TypeExternal, structuredErr.Type)
	assert.Contains(t, structuredErr.Message, "unavailable")
}

func TestSend_OpenCircuitDoesNotAffectOtherEndpoints(t *testing.T) {
	deadSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer deadSrv.Close()

	var healthyHits int
	healthySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthyHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer healthySrv.Close()

	client := NewBridgeClient(time.Second)
	deadBridge := domain.KickBridge{WebhookURL: deadSrv.URL}
	healthyBridge := domain.KickBridge{WebhookURL: healthySrv.URL}

	for range breakerFailureThreshold {
		_, err := client.Send(context.Background(), deadBridge, "chan", "msg")
		require.Error(t, err)
	}

	_, err := client.Send(context.Background(), deadBridge, "chan", "msg")
	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Contains(t, structuredErr.Message, "unavailable")

	// The dead endpoint's open circuit is scoped to its URL; other tenants'
	// bridges keep delivering.
	_, err = client.Send(context.Background(), healthyBridge, "otherchan", "msg")
	require.NoError(t, err)
	assert.Equal(t, 1, healthyHits)
}
