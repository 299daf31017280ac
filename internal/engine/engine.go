package engine

import (
	"context"
	"errors"

	"ghsec/internal/checks"
	"ghsec/internal/config"
	gh "ghsec/internal/github"
	"ghsec/internal/report"

	"go.uber.org/zap"
)

func exitCodeForRun(fatal, partial, warnings bool) int {
	// Exit code contract:
	// 0 = clean run, no warning findings
	// 1 = warning findings present
	// 2 = partial failure (at least one repository failed)
	// 3 = fatal error (audit did not run to completion)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if warnings {
		return 1
	}
	return 0
}

type Engine struct {
	API      gh.API
	Reporter *report.Reporter
}

func NewEngine(api gh.API, reporter *report.Reporter) *Engine {
	if reporter == nil {
		reporter = report.New(nil)
	}
	return &Engine{API: api, Reporter: reporter}
}

// Run audits every repository owned by the authenticated account with the
// checks selected in cfg and returns the process exit code. cfg must already
// be validated.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	logger := e.Reporter.Logger()

	if cfg == nil {
		logger.Error("configuration is nil")
		return exitCodeForRun(true, false, false)
	}
	if e.API == nil {
		logger.Error("github client is nil")
		return exitCodeForRun(true, false, false)
	}
	// The secret-name pattern is only compiled by Validate.
	if cfg.RepositorySecrets.WarnPattern() == nil {
		logger.Error("configuration has not been validated")
		return exitCodeForRun(true, false, false)
	}

	kinds, err := checks.Resolve(cfg.Checks)
	if err != nil {
		logger.Error("invalid check selection", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}
	list, err := checks.Build(kinds)
	if err != nil {
		logger.Error("invalid check selection", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	user, err := e.API.CurrentUser(ctx)
	if err != nil {
		logger.Error("failed to identify the authenticated user", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}
	login := user.GetLogin()
	logger.Info("logged in as", zap.String("login", login))

	cc, err := checks.NewContext(cfg, e.API, e.Reporter)
	if err != nil {
		logger.Error("failed to build check context", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}
	processor, err := NewProcessor(cc, list)
	if err != nil {
		logger.Error("failed to build processor", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}
	scheduler, err := NewScheduler(processor, cfg.Runtime.Concurrency, NewFilter(cfg.Targeting), cfg.Targeting.MaxRepos)
	if err != nil {
		logger.Error("failed to build scheduler", zap.Error(err))
		return exitCodeForRun(true, false, false)
	}

	e.Reporter.Event(report.Event{Type: "run.started", Login: login, Checks: checks.Names(kinds)})

	summary, err := scheduler.Run(ctx, e.API.OwnedRepos(ctx))
	fatal := err != nil
	if fatal {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("audit timed out", zap.Duration("timeout", cfg.Runtime.Timeout), zap.Error(err))
		} else {
			logger.Error("failed to list repositories", zap.Error(err))
		}
	}

	_, warnings := e.Reporter.Counts()
	failed := summary.Failed()
	code := exitCodeForRun(fatal, failed > 0, warnings > 0)
	e.Reporter.Event(report.Event{
		Type:         "run.finished",
		Repositories: len(summary.Outcomes),
		Failed:       failed,
		Warnings:     warnings,
		ExitCode:     code,
	})
	return code
}
