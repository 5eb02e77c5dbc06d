package domain

import "context"

// SendReceipt confirms one delivered message on one channel.
type SendReceipt struct {
	Platform string `json:"platform"`
	Channel  string `json:"channel"`
}

// BroadcastResult aggregates the outcome of fanning one message out to every
// configured destination. Partial failure is the normal case: per-channel
// errors land in Errors as human-readable text and never fail the broadcast
// as a whole. Attempted counts destinations independent of outcome.
type BroadcastResult struct {
	Attempted      int      `json:"attempted"`
	TwitchChannels []string `json:"twitchChannels"`
	KickChannels   []string `json:"kickChannels"`
	Errors         []string `json:"errors"`
}

// ToolsSource resolves a tenant's current tools config. Implementations must
// treat an absent or malformed stored blob as the zero config, not an error.
type ToolsSource interface {
	GetToolsConfig(ctx context.Context, tenant TenantID) (ToolsConfig, error)
}

// TwitchSender delivers a single message to one Twitch channel over a
// transient IRC connection.
type TwitchSender interface {
	Send(ctx context.Context, auth ChatAuth, channel, message string) (SendReceipt, error)
}

// KickSender delivers a single message to one Kick channel through the
// operator-run bridge service.
type KickSender interface {
	Send(ctx context.Context, bridge KickBridge, channel, message string) (SendReceipt, error)
}

// Broadcaster fans one logical message out to all of a tenant's destinations.
type Broadcaster interface {
	Broadcast(ctx context.Context, tenant TenantID, message string) (BroadcastResult, error)
}
