package domain

import "time"

// Ad timer interval bounds in minutes.
const (
	MinAdIntervalMinutes = 1
	MaxAdIntervalMinutes = 240
)

// AdTimerStatus is a point-in-time view of a tenant's recurring ad job.
// A tenant without a job reads as the zero status (not running).
type AdTimerStatus struct {
	Running         bool       `json:"running"`
	IntervalMinutes int        `json:"intervalMinutes,omitempty"`
	Message         string     `json:"message,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
}

// TournamentStartResult reports the start announcement outcome and whether a
// pickup reminder was scheduled. PickupReminderMinutes is nil when no
// reminder is pending.
type TournamentStartResult struct {
	SendResult            BroadcastResult `json:"sendResult"`
	PickupReminderMinutes *int            `json:"pickupReminderMinutes"`
}
