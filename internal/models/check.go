package models

import "time"

// CheckStatus represents the lifecycle status of one check attempt.
type CheckStatus string

const (
	CheckStatusRunning   CheckStatus = "running"
	CheckStatusSucceeded CheckStatus = "succeeded"
	CheckStatusFailed    CheckStatus = "failed"
)

// FailureReason classifies a failed check.
type FailureReason string

const (
	FailureReasonNetwork                 FailureReason = "network_error"
	FailureReasonTargetNotInstalled      FailureReason = "target_not_installed"
	FailureReasonRemoteSourceUnavailable FailureReason = "remote_source_unavailable"
	FailureReasonParse                   FailureReason = "parse_error"
)

// CheckSource represents what asked for a check.
type CheckSource string

const (
	CheckSourceManual    CheckSource = "manual"
	CheckSourcePeriodic  CheckSource = "periodic"
	CheckSourceFixedTime CheckSource = "fixed_time"
)

// CheckResult is the outcome of one check task.
type CheckResult struct {
	ID                  string        `json:"id" example:"660e8400-e29b-41d4-a716-446655440000"`
	Status              CheckStatus   `json:"status" example:"succeeded"`
	Source              CheckSource   `json:"source" example:"manual"`
	InstalledIdentifier string        `json:"installed_identifier,omitempty" example:"com.nianticlabs.pokemongo"`
	InstalledVersion    string        `json:"installed_version,omitempty" example:"0.305.1"`
	LatestVersion       string        `json:"latest_version,omitempty" example:"0.305.2"`
	UpdateAvailable     bool          `json:"update_available" example:"true"`
	Reason              FailureReason `json:"reason,omitempty" example:"network_error"`
	Message             string        `json:"message,omitempty" example:"connection refused"`
	StartedAt           time.Time     `json:"started_at" example:"2025-11-05T10:30:00Z"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty" example:"2025-11-05T10:30:02Z"`
} // @name CheckResult

// Terminal reports whether the result is final (succeeded or failed).
func (r CheckResult) Terminal() bool {
	return r.Status == CheckStatusSucceeded || r.Status == CheckStatusFailed
}
