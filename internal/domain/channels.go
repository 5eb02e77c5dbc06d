package domain

import "strings"

// ChannelSet is the deduplicated set of destination channels derived from a
// ToolsConfig. It is ephemeral: recomputed on every broadcast, never stored.
type ChannelSet struct {
	Twitch []string
	Kick   []string
}

// ResolveChannels derives the destination channel set from a tools config.
// Channel names are trimmed, lower-cased and deduplicated; Twitch names
// additionally lose a leading '#'. Empty bindings are skipped. The function
// is pure and total - any input yields a valid (possibly empty) set.
func ResolveChannels(cfg ToolsConfig) ChannelSet {
	var set ChannelSet
	seenTwitch := make(map[string]struct{})
	seenKick := make(map[string]struct{})

	for _, binding := range cfg.toolBindings() {
		if name := NormalizeTwitchChannel(binding.Twitch); name != "" {
			if _, ok := seenTwitch[name]; !ok {
				seenTwitch[name] = struct{}{}
				set.Twitch = append(set.Twitch, name)
			}
		}
		if name := normalizeKickChannel(binding.Kick); name != "" {
			if _, ok := seenKick[name]; !ok {
				seenKick[name] = struct{}{}
				set.Kick = append(set.Kick, name)
			}
		}
	}
	return set
}

// Empty reports whether the set holds no destinations at all.
func (s ChannelSet) Empty() bool {
	return len(s.Twitch) == 0 && len(s.Kick) == 0
}

// NormalizeTwitchChannel canonicalizes a Twitch channel name: trim,
// lower-case, strip one leading '#'. Returns "" for blank input.
func NormalizeTwitchChannel(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "#")
	return name
}

func normalizeKickChannel(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
