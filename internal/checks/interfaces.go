package checks

import (
	"context"

	"github.com/dhima/version-watch/internal/models"
)

// InstalledLookup resolves the installed version of the first candidate
// identifier that is present. A lookup that matches nothing returns
// ErrTargetNotInstalled, or an empty identifier with a nil error.
type InstalledLookup interface {
	LookupInstalledVersion(ctx context.Context, candidates []string) (identifier, version string, err error)
}

// RemoteSource fetches the latest published version string.
type RemoteSource interface {
	FetchLatestVersion(ctx context.Context) (string, error)
}

// Reachability reports whether the network is currently usable.
type Reachability interface {
	Reachable(ctx context.Context) bool
}

// ResultPublisher receives every terminal check result.
type ResultPublisher interface {
	Publish(ctx context.Context, result models.CheckResult) error
}

// LastCheckRecorder persists the completion time of a successful check.
type LastCheckRecorder interface {
	Update(ctx context.Context, fn func(*models.ScheduleState) error) (models.ScheduleState, error)
}
