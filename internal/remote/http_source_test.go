package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	src, err := NewHTTPSource(srv.URL, srv.Client(), logging.NewNoOpLogger())
	require.NoError(t, err)
	return src
}

func TestFetchLatestVersion_Success(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"version":"0.305.2","extra":true}`))
	})

	v, err := src.FetchLatestVersion(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "0.305.2", v)
}

func TestFetchLatestVersion_ParseErrors(t *testing.T) {
	bodies := []string{
		`not json`,
		`{}`,
		`{"version":""}`,
		`{"version":305}`,
		`[]`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := src.FetchLatestVersion(context.Background())

			assert.True(t, errors.Is(err, checks.ErrParse), "got %v", err)
			assert.Equal(t, "parse_error", string(checks.Classify(err)))
		})
	}
}

func TestFetchLatestVersion_BadStatus(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := src.FetchLatestVersion(context.Background())

	assert.True(t, errors.Is(err, checks.ErrRemoteSourceUnavailable))
}

func TestFetchLatestVersion_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	src, err := NewHTTPSource(url, nil, nil)
	require.NoError(t, err)

	_, err = src.FetchLatestVersion(context.Background())

	assert.True(t, errors.Is(err, checks.ErrNetwork), "got %v", err)
}

func TestFetchLatestVersion_Timeout(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.FetchLatestVersion(ctx)

	assert.True(t, errors.Is(err, checks.ErrNetwork), "got %v", err)
}

func TestNewHTTPSource_RequiresURL(t *testing.T) {
	_, err := NewHTTPSource("  ", nil, nil)
	assert.Error(t, err)
}
