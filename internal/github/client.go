package github

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// API is the slice of the GitHub REST API the audit needs. Implementations
// must be safe for concurrent use by many repositories at once.
type API interface {
	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*github.User, error)

	// OwnedRepos lazily lists the repositories owned by the authenticated
	// account, fetching one page at a time as the caller consumes it.
	OwnedRepos(ctx context.Context) iter.Seq2[*github.Repository, error]

	// ListRepoSecrets returns every repository-level Actions secret (names
	// and timestamps only). It either returns the complete list or an error.
	ListRepoSecrets(ctx context.Context, owner, repo string) ([]*github.Secret, error)

	GetDefaultWorkflowPermissions(ctx context.Context, owner, repo string) (*github.DefaultWorkflowPermissionRepository, error)
	UpdateDefaultWorkflowPermissions(ctx context.Context, owner, repo string, permissions github.DefaultWorkflowPermissionRepository) error
}

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

var _ API = (*Client)(nil)

const listPageSize = 100

type options struct {
	verbose bool
	logger  *zap.Logger
	baseURL string
}

type Option func(*options)

// WithVerbose traces every request and response at debug level on logger.
func WithVerbose(enabled bool, logger *zap.Logger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithBaseURL points the client at a different API root, e.g. a GitHub
// Enterprise Server or a test server.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// loggingRoundTripper wraps an underlying transport and emits one record per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", zap.Duration("elapsed", dur), zap.Error(err))
	} else {
		t.logger.Debug("github api response", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", dur))
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.logger == nil {
		o.logger = zap.L()
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	// Always provide an http.Client so verbose logging works even without a token.
	tc := &http.Client{Transport: transport}

	client := github.NewClient(tc)
	if o.baseURL != "" {
		raw := o.baseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base URL %q: %w", o.baseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{
		Client: client,
		HTTP:   tc,
	}, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*github.User, error) {
	user, _, err := c.Client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("get authenticated user: %w", err)
	}
	return user, nil
}

func (c *Client) OwnedRepos(ctx context.Context) iter.Seq2[*github.Repository, error] {
	return func(yield func(*github.Repository, error) bool) {
		opts := &github.RepositoryListByAuthenticatedUserOptions{
			Type:        "owner",
			ListOptions: github.ListOptions{PerPage: listPageSize},
		}
		for {
			repos, resp, err := c.Client.Repositories.ListByAuthenticatedUser(ctx, opts)
			if err != nil {
				yield(nil, fmt.Errorf("list owned repositories (page %d): %w", max(opts.Page, 1), err))
				return
			}
			for _, r := range repos {
				if r == nil {
					continue
				}
				if !yield(r, nil) {
					return
				}
			}
			if resp == nil || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

func (c *Client) ListRepoSecrets(ctx context.Context, owner, repo string) ([]*github.Secret, error) {
	opts := &github.ListOptions{PerPage: listPageSize}
	var all []*github.Secret
	for {
		page, resp, err := c.Client.Actions.ListRepoSecrets(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list secrets for %s/%s (page %d): %w", owner, repo, max(opts.Page, 1), err)
		}
		if page != nil {
			for _, s := range page.Secrets {
				if s != nil {
					all = append(all, s)
				}
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) GetDefaultWorkflowPermissions(ctx context.Context, owner, repo string) (*github.DefaultWorkflowPermissionRepository, error) {
	perms, _, err := c.Client.Repositories.GetDefaultWorkflowPermissions(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get default workflow permissions for %s/%s: %w", owner, repo, err)
	}
	return perms, nil
}

func (c *Client) UpdateDefaultWorkflowPermissions(ctx context.Context, owner, repo string, permissions github.DefaultWorkflowPermissionRepository) error {
	if _, _, err := c.Client.Repositories.UpdateDefaultWorkflowPermissions(ctx, owner, repo, permissions); err != nil {
		return fmt.Errorf("update default workflow permissions for %s/%s: %w", owner, repo, err)
	}
	return nil
}
