package engine

import (
	"errors"
	"sort"
)

// RepoOutcome is the result of running the configured checks against one
// repository. Err is nil when every check completed.
type RepoOutcome struct {
	Repository string
	Err        error
}

// Summary aggregates the outcomes of one scheduler run. Outcomes are in
// completion order.
type Summary struct {
	Outcomes []RepoOutcome
}

func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes sorted by repository name.
func (s Summary) Failures() []RepoOutcome {
	var out []RepoOutcome
	for _, o := range s.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Repository < out[j].Repository })
	return out
}

// Err joins every repository error, or returns nil when none failed.
func (s Summary) Err() error {
	var errs []error
	for _, o := range s.Failures() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}
