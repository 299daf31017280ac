package checks

import (
	"errors"

	"ghsec/internal/config"
	gh "ghsec/internal/github"
	"ghsec/internal/report"
)

// Context is the run-wide bundle every check receives. It is built once per
// run and shared by all repositories; nothing writes to it afterwards.
type Context struct {
	Config   *config.Config
	API      gh.API
	Reporter *report.Reporter
}

func NewContext(cfg *config.Config, api gh.API, reporter *report.Reporter) (*Context, error) {
	if cfg == nil {
		return nil, errors.New("check context: config is nil")
	}
	if api == nil {
		return nil, errors.New("check context: api client is nil")
	}
	if reporter == nil {
		reporter = report.New(nil)
	}
	return &Context{Config: cfg, API: api, Reporter: reporter}, nil
}
