package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/version-watch/internal/models"
)

// FakePublisher captures published check results and can simulate failures.
type FakePublisher struct {
	mu        sync.Mutex
	Results   []models.CheckResult
	FailNext  bool
	FailError error
}

func (p *FakePublisher) Publish(_ context.Context, r models.CheckResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		if p.FailError == nil {
			p.FailError = errors.New("publish failed")
		}
		return p.FailError
	}
	p.Results = append(p.Results, r)
	return nil
}

// Published returns a copy of the captured results.
func (p *FakePublisher) Published() []models.CheckResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.CheckResult(nil), p.Results...)
}
