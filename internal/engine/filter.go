package engine

import (
	"path"
	"strings"

	"ghsec/internal/config"

	"github.com/google/go-github/v81/github"
)

// Filter decides which listed repositories are audited. The zero value
// accepts every repository.
type Filter struct {
	Visibility string
	Archived   string
	Forks      string
	Include    []string
	Exclude    []string
}

func NewFilter(t config.Targeting) Filter {
	return Filter{
		Visibility: strings.TrimSpace(t.Visibility),
		Archived:   strings.TrimSpace(t.Archived),
		Forks:      strings.TrimSpace(t.Forks),
		Include:    t.Include,
		Exclude:    t.Exclude,
	}
}

func (f Filter) Match(repo *github.Repository) bool {
	if repo == nil {
		return false
	}

	// Visibility
	if f.Visibility != "" && f.Visibility != "all" && f.Visibility != repoVisibility(repo) {
		return false
	}

	// Archived
	if f.Archived == "exclude" && repo.GetArchived() {
		return false
	}
	if f.Archived == "only" && !repo.GetArchived() {
		return false
	}

	// Forks
	if f.Forks == "exclude" && repo.GetFork() {
		return false
	}
	if f.Forks == "only" && !repo.GetFork() {
		return false
	}

	// Include/exclude patterns (name matching)
	fullName := repo.GetFullName()
	repoName := repo.GetName()

	// If Include is set, must match at least one
	if len(f.Include) > 0 && !matchesAnyPattern(f.Include, fullName, repoName) {
		return false
	}

	// If Exclude is set, must not match any
	if len(f.Exclude) > 0 && matchesAnyPattern(f.Exclude, fullName, repoName) {
		return false
	}

	return true
}

func repoVisibility(repo *github.Repository) string {
	if v := strings.TrimSpace(repo.GetVisibility()); v != "" {
		return v
	}
	if repo.GetPrivate() {
		return "private"
	}
	return "public"
}

func matchesAnyPattern(patterns []string, fullName, repoName string) bool {
	for _, p := range patterns {
		if matchPattern(p, fullName, repoName) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, fullName, repoName string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	// If the pattern includes an owner component (contains '/'), match against full name.
	// Otherwise match against repo name only so patterns like "*-service" work across owners.
	if strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, fullName)
		return matched
	}
	matched, _ := path.Match(pattern, repoName)
	return matched
}
