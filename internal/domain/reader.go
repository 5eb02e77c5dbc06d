package domain

import "time"

// MaxReaderLogEntries bounds the per-session in-memory chat log. Oldest
// entries are dropped once the window is full.
const MaxReaderLogEntries = 300

// LogEntryType classifies reader log entries.
type LogEntryType string

const (
	LogEntrySystem  LogEntryType = "system"
	LogEntryMessage LogEntryType = "message"
	LogEntryError   LogEntryType = "error"
)

// LogEntry is one line in a reader session's bounded chat log.
type LogEntry struct {
	At       time.Time    `json:"at"`
	Type     LogEntryType `json:"type"`
	Channel  string       `json:"channel,omitempty"`
	Username string       `json:"username,omitempty"`
	Message  string       `json:"message"`
}

// ReaderStatus is a point-in-time view of a tenant's chat reader session.
// A tenant without a session reads as the zero status (not running).
type ReaderStatus struct {
	Running   bool       `json:"running"`
	Channels  []string   `json:"channels,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}
