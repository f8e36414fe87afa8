package models

import (
	"fmt"
	"sort"
	"time"
)

// TriggerKind represents the type of trigger.
type TriggerKind string

const (
	TriggerKindPeriodic  TriggerKind = "periodic"
	TriggerKindFixedTime TriggerKind = "fixed_time"
)

// FixedTime is a 24h wall-clock time of day at which a daily check fires.
type FixedTime struct {
	Hour   int `json:"hour" example:"9"`
	Minute int `json:"minute" example:"30"`
}

// MinuteOfDay returns hour*60+minute.
func (f FixedTime) MinuteOfDay() int {
	return f.Hour*60 + f.Minute
}

// Valid reports whether the hour and minute are within a 24h clock.
func (f FixedTime) Valid() bool {
	return f.Hour >= 0 && f.Hour <= 23 && f.Minute >= 0 && f.Minute <= 59
}

// String formats the time as zero-padded HH:MM.
func (f FixedTime) String() string {
	return fmt.Sprintf("%02d:%02d", f.Hour, f.Minute)
}

// Trigger identifies one scheduled check.
type Trigger struct {
	Kind   TriggerKind `json:"kind"`
	Hour   int         `json:"hour,omitempty"`
	Minute int         `json:"minute,omitempty"`
}

// PeriodicTrigger returns the single periodic trigger.
func PeriodicTrigger() Trigger {
	return Trigger{Kind: TriggerKindPeriodic}
}

// FixedTimeTrigger returns the daily trigger for the given time of day.
func FixedTimeTrigger(t FixedTime) Trigger {
	return Trigger{Kind: TriggerKindFixedTime, Hour: t.Hour, Minute: t.Minute}
}

// ScheduleState is the full durable record of triggers and last-check bookkeeping.
type ScheduleState struct {
	PeriodicEnabled bool        `json:"periodic_enabled"`
	FixedTimes      []FixedTime `json:"fixed_times"`
	// LastCheckTime is epoch milliseconds; 0 means never.
	LastCheckTime int64 `json:"last_check_time"`
}

// HasFixedTime reports whether t is part of the persisted set.
func (s ScheduleState) HasFixedTime(t FixedTime) bool {
	for _, ft := range s.FixedTimes {
		if ft == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias the store's slice.
func (s ScheduleState) Clone() ScheduleState {
	out := s
	out.FixedTimes = append([]FixedTime(nil), s.FixedTimes...)
	return out
}

// NormalizeFixedTimes sorts by time of day and drops duplicates.
func NormalizeFixedTimes(times []FixedTime) []FixedTime {
	out := make([]FixedTime, 0, len(times))
	seen := make(map[int]struct{}, len(times))
	for _, t := range times {
		if _, dup := seen[t.MinuteOfDay()]; dup {
			continue
		}
		seen[t.MinuteOfDay()] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinuteOfDay() < out[j].MinuteOfDay() })
	return out
}

// Dispatch is the payload the alarm facility hands back when a registration fires.
type Dispatch struct {
	Periodic    bool      `json:"periodic"`
	Hour        int       `json:"hour"`
	Minute      int       `json:"minute"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// FixedTime returns the time of day carried by a fixed-time dispatch.
func (d Dispatch) FixedTime() FixedTime {
	return FixedTime{Hour: d.Hour, Minute: d.Minute}
}

// TriggerView describes an active trigger for collaborators.
type TriggerView struct {
	Trigger
	Identity   int        `json:"identity" example:"2570"`
	Time       string     `json:"time,omitempty" example:"09:30"`
	NextFireAt *time.Time `json:"next_fire_at,omitempty" example:"2025-11-05T09:30:00Z"`
} // @name TriggerView

// TriggerListResponse represents the response for listing triggers.
type TriggerListResponse struct {
	State    ScheduleState `json:"state"`
	Triggers []TriggerView `json:"triggers"`
} // @name TriggerListResponse

// AddFixedTimeRequest represents the request to add a daily check time.
type AddFixedTimeRequest struct {
	Hour   *int `json:"hour" binding:"required" example:"9"`
	Minute *int `json:"minute" binding:"required" example:"30"`
} // @name AddFixedTimeRequest
