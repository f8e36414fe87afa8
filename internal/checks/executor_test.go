package checks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/internal/testutil/fakes"
	"github.com/dhima/version-watch/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	checkNow = time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	targets  = []string{"com.nianticlabs.pokemongo", "com.pgsharp.pokemongo", "com.nianticproject.holoholo"}
)

func newTestExecutor(installed InstalledLookup, remote RemoteSource, recorder LastCheckRecorder) *Executor {
	return NewExecutor(installed, remote, recorder, targets, clock.NewFixed(checkNow), logging.NewNoOpLogger())
}

func TestRunCheck_VersionComparison(t *testing.T) {
	cases := []struct {
		name      string
		installed string
		latest    string
		update    bool
	}{
		{"older installed", "0.305.1", "0.305.2", true},
		{"equal", "0.305.2", "0.305.2", false},
		{"newer installed still differs", "0.305.3", "0.305.2", true},
		{"formatting differs", "0.305.2 ", "0.305.2", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := newTestExecutor(
				fakes.NewFakeInstalled(map[string]string{"com.nianticlabs.pokemongo": tc.installed}),
				&fakes.FakeRemote{Version: tc.latest},
				nil,
			)

			result := exec.RunCheck(context.Background(), models.CheckSourceManual)

			assert.Equal(t, models.CheckStatusSucceeded, result.Status)
			assert.Equal(t, tc.update, result.UpdateAvailable)
			assert.Equal(t, tc.installed, result.InstalledVersion)
			assert.Equal(t, tc.latest, result.LatestVersion)
			assert.True(t, result.Terminal())
		})
	}
}

func TestRunCheck_FirstMatchingCandidateWins(t *testing.T) {
	exec := newTestExecutor(
		fakes.NewFakeInstalled(map[string]string{
			"com.pgsharp.pokemongo":       "0.300.0",
			"com.nianticproject.holoholo": "0.299.0",
		}),
		&fakes.FakeRemote{Version: "0.305.2"},
		nil,
	)

	result := exec.RunCheck(context.Background(), models.CheckSourcePeriodic)

	assert.Equal(t, "com.pgsharp.pokemongo", result.InstalledIdentifier)
	assert.Equal(t, "0.300.0", result.InstalledVersion)
	assert.Equal(t, models.CheckSourcePeriodic, result.Source)
}

func TestRunCheck_NotInstalled(t *testing.T) {
	remote := &fakes.FakeRemote{Version: "0.305.2"}
	exec := newTestExecutor(fakes.NewFakeInstalled(map[string]string{}), remote, nil)

	result := exec.RunCheck(context.Background(), models.CheckSourceManual)

	assert.Equal(t, models.CheckStatusFailed, result.Status)
	assert.Equal(t, models.FailureReasonTargetNotInstalled, result.Reason)
	assert.Zero(t, remote.Calls())
}

func TestRunCheck_RemoteFailuresClassified(t *testing.T) {
	cases := []struct {
		err    error
		reason models.FailureReason
	}{
		{fmt.Errorf("dial: %w", ErrNetwork), models.FailureReasonNetwork},
		{context.DeadlineExceeded, models.FailureReasonNetwork},
		{fmt.Errorf("decode: %w", ErrParse), models.FailureReasonParse},
		{fmt.Errorf("status 503: %w", ErrRemoteSourceUnavailable), models.FailureReasonRemoteSourceUnavailable},
		{errors.New("something else"), models.FailureReasonRemoteSourceUnavailable},
	}

	for _, tc := range cases {
		t.Run(string(tc.reason)+"/"+tc.err.Error(), func(t *testing.T) {
			store := fakes.NewFakeStateStore()
			exec := newTestExecutor(
				fakes.NewFakeInstalled(map[string]string{"com.nianticlabs.pokemongo": "0.305.1"}),
				&fakes.FakeRemote{Err: tc.err},
				store,
			)

			result := exec.RunCheck(context.Background(), models.CheckSourceManual)

			assert.Equal(t, models.CheckStatusFailed, result.Status)
			assert.Equal(t, tc.reason, result.Reason)
			assert.NotEmpty(t, result.Message)
			assert.Zero(t, store.Snapshot().LastCheckTime)
		})
	}
}

func TestRunCheck_InstalledLookupError(t *testing.T) {
	installed := fakes.NewFakeInstalled(nil)
	installed.Err = fmt.Errorf("registry: %w", ErrTargetNotInstalled)
	exec := newTestExecutor(installed, &fakes.FakeRemote{Version: "1"}, nil)

	result := exec.RunCheck(context.Background(), models.CheckSourceManual)

	assert.Equal(t, models.FailureReasonTargetNotInstalled, result.Reason)
}

func TestRunCheck_SuccessRecordsLastCheckTime(t *testing.T) {
	store := fakes.NewFakeStateStore()
	exec := newTestExecutor(
		fakes.NewFakeInstalled(map[string]string{"com.nianticlabs.pokemongo": "0.305.2"}),
		&fakes.FakeRemote{Version: "0.305.2"},
		store,
	)

	result := exec.RunCheck(context.Background(), models.CheckSourceManual)

	require.Equal(t, models.CheckStatusSucceeded, result.Status)
	assert.Equal(t, checkNow.UnixMilli(), store.Snapshot().LastCheckTime)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, checkNow, *result.CompletedAt)
	assert.NotEmpty(t, result.ID)
}

func TestRunCheck_RecorderFailureKeepsSuccess(t *testing.T) {
	store := fakes.NewFakeStateStore()
	store.FailNext = true
	exec := newTestExecutor(
		fakes.NewFakeInstalled(map[string]string{"com.nianticlabs.pokemongo": "0.305.2"}),
		&fakes.FakeRemote{Version: "0.305.2"},
		store,
	)

	result := exec.RunCheck(context.Background(), models.CheckSourceManual)

	assert.Equal(t, models.CheckStatusSucceeded, result.Status)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.FailureReasonTargetNotInstalled, Classify(ErrTargetNotInstalled))
	assert.Equal(t, models.FailureReasonNetwork, Classify(fmt.Errorf("x: %w", ErrNetwork)))
	assert.Equal(t, models.FailureReasonParse, Classify(ErrParse))
	assert.Equal(t, models.FailureReasonRemoteSourceUnavailable, Classify(errors.New("boom")))
}
