package triggers

import "github.com/dhima/version-watch/internal/models"

const (
	// PeriodicIdentity is the fixed alarm identity of the periodic trigger.
	PeriodicIdentity = 1000
	// FixedTimeIdentityBase is added to the minute of day for fixed-time triggers.
	FixedTimeIdentityBase = 2000
	// FixedTimeIdentityCount is the size of the fixed-time identity range.
	FixedTimeIdentityCount = 24 * 60
)

// FixedTimeIdentity returns the alarm identity for a time of day. Every valid
// time maps to a distinct value in [2000, 3439].
func FixedTimeIdentity(t models.FixedTime) int {
	return FixedTimeIdentityBase + t.MinuteOfDay()
}

// Identity returns the alarm identity of any trigger.
func Identity(t models.Trigger) int {
	if t.Kind == models.TriggerKindPeriodic {
		return PeriodicIdentity
	}
	return FixedTimeIdentity(models.FixedTime{Hour: t.Hour, Minute: t.Minute})
}
