package checks

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"
)

// Check is one detection (and optional remediation) unit run against a single
// repository. A check either completes its whole cycle or returns an error.
type Check interface {
	Kind() Kind
	Run(ctx context.Context, cc *Context, repo *github.Repository) error
}

// repoCoordinates returns the owner login and name used to address repo in
// API calls.
func repoCoordinates(repo *github.Repository) (owner, name string, err error) {
	if repo == nil {
		return "", "", fmt.Errorf("repository is nil")
	}
	owner = repo.GetOwner().GetLogin()
	if owner == "" {
		return "", "", fmt.Errorf("repository %q: missing owner", repo.GetFullName())
	}
	name = repo.GetName()
	if name == "" {
		return "", "", fmt.Errorf("repository %q: missing name", repo.GetFullName())
	}
	return owner, name, nil
}

func fullName(repo *github.Repository) string {
	if n := repo.GetFullName(); n != "" {
		return n
	}
	return repo.GetOwner().GetLogin() + "/" + repo.GetName()
}
