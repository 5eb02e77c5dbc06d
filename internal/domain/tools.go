package domain

import "encoding/json"

// TenantID identifies a platform tenant (creator). It is opaque to the core;
// all per-tenant registries are keyed by it.
type TenantID string

func (t TenantID) String() string { return string(t) }

// ChannelBinding names the destination channels one tool posts to.
// Either field may be empty.
type ChannelBinding struct {
	Twitch string `json:"twitch,omitempty"`
	Kick   string `json:"kick,omitempty"`
}

// ChatAuth holds the tenant's Twitch IRC credentials.
type ChatAuth struct {
	TwitchBotUsername string `json:"twitchBotUsername"`
	TwitchOauthToken  string `json:"twitchOauthToken"`
}

// KickBridge holds the tenant's Kick bridge endpoint. The bridge is an
// operator-run HTTP service; the core never speaks the Kick chat protocol.
type KickBridge struct {
	WebhookURL    string `json:"webhookUrl"`
	WebhookSecret string `json:"webhookSecret"`
}

// ToolsConfig is the per-tenant tool configuration blob. It is owned and
// persisted by the storage layer; the core only reads it and derives from it
// per invocation.
type ToolsConfig struct {
	Bonushunt   ChannelBinding `json:"bonushunt"`
	Wagerbar    ChannelBinding `json:"wagerbar"`
	Slottracker ChannelBinding `json:"slottracker"`
	Tournament  ChannelBinding `json:"tournament"`
	ChatAuth    ChatAuth       `json:"chatAuth"`
	KickBridge  KickBridge     `json:"kickBridge"`
}

// toolBindings returns the four fixed tool sections in declaration order.
func (c ToolsConfig) toolBindings() []ChannelBinding {
	return []ChannelBinding{c.Bonushunt, c.Wagerbar, c.Slottracker, c.Tournament}
}

// ParseToolsConfig decodes a stored config blob. Absent or malformed input
// yields the zero config - a missing config is never an error, it simply
// resolves to zero destinations.
func ParseToolsConfig(blob []byte) ToolsConfig {
	var cfg ToolsConfig
	if len(blob) == 0 {
		return cfg
	}
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return ToolsConfig{}
	}
	return cfg
}
