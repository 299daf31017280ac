package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of repositories audited at once when the
// configuration does not say otherwise.
const DefaultConcurrency = 8

type Scheduler struct {
	processor   *Processor
	concurrency int
	filter      Filter
	maxRepos    int
}

// NewScheduler returns a scheduler that runs at most concurrency processors
// at once (0 means unbounded) and stops accepting repositories after maxRepos
// (0 means unlimited).
func NewScheduler(p *Processor, concurrency int, filter Filter, maxRepos int) (*Scheduler, error) {
	if p == nil {
		return nil, errors.New("processor is nil")
	}
	if concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be >= 0, got %d", concurrency)
	}
	if maxRepos < 0 {
		return nil, fmt.Errorf("max repos must be >= 0, got %d", maxRepos)
	}
	return &Scheduler{processor: p, concurrency: concurrency, filter: filter, maxRepos: maxRepos}, nil
}

// Run consumes repos lazily and starts one processor per accepted repository.
// When the concurrency limit is reached, listing pauses until a slot frees up.
//
// Run always waits for every started processor. A listing error stops
// consumption and is returned alongside the outcomes collected so far; it is
// the only error Run returns. Per-repository failures are in the Summary.
func (s *Scheduler) Run(ctx context.Context, repos iter.Seq2[*github.Repository, error]) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("context is nil")
	}
	if repos == nil {
		return Summary{}, errors.New("repository source is nil")
	}

	logger := s.processor.cc.Reporter.Logger()

	var (
		g         errgroup.Group
		mu        sync.Mutex
		outcomes  []RepoOutcome
		streamErr error
		accepted  int
	)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for repo, err := range repos {
		if err != nil {
			streamErr = err
			break
		}
		if !s.filter.Match(repo) {
			logger.Debug("repository filtered out", zap.String("repository", repo.GetFullName()))
			continue
		}
		if s.maxRepos > 0 && accepted >= s.maxRepos {
			break
		}
		accepted++

		g.Go(func() error {
			outcome := s.processor.Process(ctx, repo)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return Summary{Outcomes: outcomes}, streamErr
}
