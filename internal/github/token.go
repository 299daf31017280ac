package github

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AuthTokenSource names where the audit token came from. It is logged; the
// token never is.
type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGHCLI    AuthTokenSource = "gh"
)

// ghTokenTimeout bounds `gh auth token` when the caller set no deadline.
const ghTokenTimeout = 5 * time.Second

type Credentials struct {
	GitHubToken string `env:"GITHUB_TOKEN"`
}

func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials from environment: %w", err)
	}
	c.GitHubToken = strings.TrimSpace(c.GitHubToken)
	return c, nil
}

// ResolveAuthToken picks the token ghsec audits with: the --token value,
// then GITHUB_TOKEN, then whatever the gh CLI is logged in with for
// github.com. An empty token and source with a nil error means none of them
// had one.
func ResolveAuthToken(ctx context.Context, provided string) (string, AuthTokenSource, error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}

	creds, err := LoadCredentials()
	if err != nil {
		return "", "", err
	}
	if creds.GitHubToken != "" {
		return creds.GitHubToken, AuthTokenSourceEnv, nil
	}

	tok, err := ghCLIToken(ctx)
	if err != nil || tok == "" {
		return "", "", err
	}
	return tok, AuthTokenSourceGHCLI, nil
}

// ghCLIToken asks gh for its github.com token. A missing binary or a gh that
// is not logged in yields "", nil; only cancellation and malformed output are
// errors.
func ghCLIToken(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ghTokenTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "token", "-h", "github.com")
	cmd.Env = ghEnviron(os.Environ())
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\r\n") {
		return "", errors.New("gh auth token: output is not a single token")
	}
	return tok, nil
}

// ghEnviron returns environ with GH_PAGER forced to cat.
func ghEnviron(environ []string) []string {
	out := slices.DeleteFunc(slices.Clone(environ), func(kv string) bool {
		return strings.HasPrefix(kv, "GH_PAGER=")
	})
	return append(out, "GH_PAGER=cat")
}
