// Package broadcast fans single messages out to every configured destination
// of a tenant across both chat networks.
//
// Partial failure is the normal case: one channel's bot may lack moderator
// rights while the others deliver fine. Per-channel failures are aggregated
// as text, never propagated as errors.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/metrics"
)

// Dispatcher resolves a tenant's destinations and dispatches to them
// concurrently. Each destination gets exactly one attempt per call; the call
// returns once every attempt has settled.
type Dispatcher struct {
	configs domain.ToolsSource
	twitch  domain.TwitchSender
	kick    domain.KickSender
}

func NewDispatcher(configs domain.ToolsSource, twitch domain.TwitchSender, kick domain.KickSender) *Dispatcher {
	return &Dispatcher{configs: configs, twitch: twitch, kick: kick}
}

// Broadcast sends one message to all of the tenant's configured channels.
// The returned error covers config resolution only; send failures land in
// the result's Errors list.
func (d *Dispatcher) Broadcast(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error) {
	start := time.Now()

	cfg, err := d.configs.GetToolsConfig(ctx, tenant)
	if err != nil {
		return domain.BroadcastResult{}, apperrors.InternalError("failed to load tools config", err).
			WithField("tenant_id", tenant.String())
	}

	set := domain.ResolveChannels(cfg)
	result := domain.BroadcastResult{
		Attempted:      len(set.Twitch) + len(set.Kick),
		TwitchChannels: append([]string{}, set.Twitch...),
		KickChannels:   append([]string{}, set.Kick...),
		Errors:         []string{},
	}

	if set.Empty() {
		metrics.BroadcastsTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	fail := func(platform, channel string, err error) {
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", platform, channel, err))
		mu.Unlock()
	}

	for _, channel := range set.Twitch {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			if _, err := d.twitch.Send(ctx, cfg.ChatAuth, channel, message); err != nil {
				metrics.BroadcastSendsTotal.WithLabelValues("twitch", "error").Inc()
				fail("twitch", channel, err)
				return
			}
			metrics.BroadcastSendsTotal.WithLabelValues("twitch", "ok").Inc()
		}(channel)
	}

	for _, channel := range set.Kick {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			if _, err := d.kick.Send(ctx, cfg.KickBridge, channel, message); err != nil {
				metrics.BroadcastSendsTotal.WithLabelValues("kick", "error").Inc()
				fail("kick", channel, err)
				return
			}
			metrics.BroadcastSendsTotal.WithLabelValues("kick", "ok").Inc()
		}(channel)
	}

	wg.Wait()

	// Goroutine completion order is arbitrary; sorted errors keep responses
	// and logs stable.
	sort.Strings(result.Errors)

	outcome := "ok"
	if len(result.Errors) > 0 {
		outcome = "partial"
		slog.InfoContext(ctx, "Broadcast completed with failures",
			"tenant_id", tenant.String(),
			"attempted", result.Attempted,
			"failed", len(result.Errors),
		)
	}
	metrics.BroadcastsTotal.WithLabelValues(outcome).Inc()
	metrics.BroadcastDuration.Observe(time.Since(start).Seconds())

	return result, nil
}
