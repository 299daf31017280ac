package engine

import (
	"context"
	"errors"
	"fmt"

	"ghsec/internal/checks"
	"ghsec/internal/report"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
)

// Processor runs the configured checks against one repository at a time.
// Checks run strictly in order and the first failure ends that repository's
// run.
type Processor struct {
	cc     *checks.Context
	checks []checks.Check
}

func NewProcessor(cc *checks.Context, list []checks.Check) (*Processor, error) {
	if cc == nil {
		return nil, errors.New("check context is nil")
	}
	for i, c := range list {
		if c == nil {
			return nil, fmt.Errorf("check %d is nil", i)
		}
	}
	return &Processor{cc: cc, checks: list}, nil
}

func (p *Processor) Process(ctx context.Context, repo *github.Repository) RepoOutcome {
	name := repo.GetFullName()
	logger := p.cc.Reporter.ForRepository(name)

	for _, c := range p.checks {
		kind := c.Kind().String()
		logger.Debug("running check", zap.String("check", kind))

		if err := c.Run(ctx, p.cc, repo); err != nil {
			err = fmt.Errorf("check %s: %w", kind, err)
			p.cc.Reporter.Event(report.Event{Type: "repo.failed", Repository: name, Check: kind, Err: err})
			return RepoOutcome{Repository: name, Err: err}
		}
	}
	return RepoOutcome{Repository: name}
}
