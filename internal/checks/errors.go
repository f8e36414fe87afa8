package checks

import (
	"context"
	"errors"

	"github.com/dhima/version-watch/internal/models"
)

var (
	// ErrNetwork marks transport failures reaching the remote source.
	ErrNetwork = errors.New("network error")
	// ErrTargetNotInstalled means none of the candidate identifiers is installed.
	ErrTargetNotInstalled = errors.New("target not installed")
	// ErrRemoteSourceUnavailable means the remote source answered but not usefully.
	ErrRemoteSourceUnavailable = errors.New("remote source unavailable")
	// ErrParse means the remote payload could not be decoded.
	ErrParse = errors.New("remote payload parse error")
)

// Classify maps an error from a collaborator to a failure reason. Errors
// that match no known category count as the remote source being unavailable.
func Classify(err error) models.FailureReason {
	switch {
	case errors.Is(err, ErrTargetNotInstalled):
		return models.FailureReasonTargetNotInstalled
	case errors.Is(err, ErrParse):
		return models.FailureReasonParse
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return models.FailureReasonNetwork
	default:
		return models.FailureReasonRemoteSourceUnavailable
	}
}
