// Package remote fetches the latest published version and probes network
// reachability.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// versionSchema describes the accepted response body.
const versionSchema = `{
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "string", "minLength": 1}
  }
}`

// HTTPSource fetches the latest version from a JSON endpoint returning
// {"version": "..."}.
type HTTPSource struct {
	url    string
	client *http.Client
	schema *gojsonschema.Schema
	logger logging.Logger
}

// NewHTTPSource creates a source for url. A nil client uses a client with a
// 30s timeout.
func NewHTTPSource(url string, client *http.Client, logger logging.Logger) (*HTTPSource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("remote version url is required")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(versionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile version schema: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &HTTPSource{
		url:    url,
		client: client,
		schema: schema,
		logger: logger.With(zap.String("component", "remote_source")),
	}, nil
}

// FetchLatestVersion implements checks.RemoteSource.
func (s *HTTPSource) FetchLatestVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", checks.ErrRemoteSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", fmt.Errorf("%w: unexpected status %d", checks.ErrRemoteSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classifyTransport(err)
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", checks.ErrParse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		s.logger.Warn("remote payload failed validation", zap.Strings("errors", msgs))
		return "", fmt.Errorf("%w: %s", checks.ErrParse, strings.Join(msgs, "; "))
	}

	var payload struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", checks.ErrParse, err)
	}
	return payload.Version, nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", checks.ErrNetwork, err)
	case errors.As(err, &opErr), errors.As(err, &dnsErr), errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", checks.ErrNetwork, err)
	default:
		return fmt.Errorf("%w: %v", checks.ErrRemoteSourceUnavailable, err)
	}
}
