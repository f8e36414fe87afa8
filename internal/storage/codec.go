package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhima/version-watch/internal/models"
)

// Namespace groups every persisted key of the schedule state.
const Namespace = "version_watch"

// Persisted keys.
const (
	KeyPeriodicEnabled = "periodic.enabled"
	KeyFixedTimes      = "fixed_times"
	KeyLastCheckTime   = "last_check_time"
)

// FixedTimeDelimiter separates HH:MM entries in the fixed_times value.
const FixedTimeDelimiter = ";"

// Encode flattens a ScheduleState into its key/value layout.
func Encode(state models.ScheduleState) map[string]string {
	times := models.NormalizeFixedTimes(state.FixedTimes)
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, t.String())
	}
	return map[string]string{
		KeyPeriodicEnabled: strconv.FormatBool(state.PeriodicEnabled),
		KeyFixedTimes:      strings.Join(parts, FixedTimeDelimiter),
		KeyLastCheckTime:   strconv.FormatInt(state.LastCheckTime, 10),
	}
}

// Decode rebuilds a ScheduleState from its key/value layout. Missing keys take
// their defaults. Unparseable fixed-time entries are dropped rather than failing
// the whole load, so a corrupted entry cannot stop the remaining triggers.
func Decode(values map[string]string) (models.ScheduleState, error) {
	var state models.ScheduleState

	if raw, ok := values[KeyPeriodicEnabled]; ok && raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return models.ScheduleState{}, fmt.Errorf("decode %s: %w", KeyPeriodicEnabled, err)
		}
		state.PeriodicEnabled = enabled
	}

	if raw, ok := values[KeyLastCheckTime]; ok && raw != "" {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.ScheduleState{}, fmt.Errorf("decode %s: %w", KeyLastCheckTime, err)
		}
		state.LastCheckTime = millis
	}

	state.FixedTimes = DecodeFixedTimes(values[KeyFixedTimes])
	return state, nil
}

// DecodeFixedTimes parses a delimited list of HH:MM (or legacy H:M) entries.
func DecodeFixedTimes(raw string) []models.FixedTime {
	times := []models.FixedTime{}
	if strings.TrimSpace(raw) == "" {
		return times
	}
	for _, entry := range strings.Split(raw, FixedTimeDelimiter) {
		t, err := ParseFixedTime(entry)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return models.NormalizeFixedTimes(times)
}

// ParseFixedTime parses one HH:MM entry and validates its range.
func ParseFixedTime(entry string) (models.FixedTime, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) != 2 {
		return models.FixedTime{}, fmt.Errorf("fixed time %q: want HH:MM", entry)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.FixedTime{}, fmt.Errorf("fixed time %q: %w", entry, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.FixedTime{}, fmt.Errorf("fixed time %q: %w", entry, err)
	}
	t := models.FixedTime{Hour: hour, Minute: minute}
	if !t.Valid() {
		return models.FixedTime{}, fmt.Errorf("fixed time %q: out of range", entry)
	}
	return t, nil
}
