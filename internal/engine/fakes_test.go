package engine

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"ghsec/internal/checks"
	"ghsec/internal/config"
	gh "ghsec/internal/github"
	"ghsec/internal/report"

	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeAPI is an in-memory GitHub serving the secrets and workflow permission
// resources for a set of owned repositories.
type fakeAPI struct {
	login   string
	userErr error
	listErr error

	repos       []*github.Repository
	secrets     map[string][]string
	permissions map[string]string
	failRepos   map[string]error

	mu     sync.Mutex
	calls  []string
	writes map[string]int
}

var _ gh.API = (*fakeAPI)(nil)

func (f *fakeAPI) CurrentUser(ctx context.Context) (*github.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &github.User{Login: github.Ptr(f.login)}, nil
}

func (f *fakeAPI) OwnedRepos(ctx context.Context) iter.Seq2[*github.Repository, error] {
	return repoSeq(f.repos, f.listErr)
}

// record logs the call and returns the scripted failure for repo, if any.
func (f *fakeAPI) record(ctx context.Context, call, repo string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err := f.failRepos[repo]; err != nil {
		return err
	}
	return ctx.Err()
}

func (f *fakeAPI) ListRepoSecrets(ctx context.Context, owner, repo string) ([]*github.Secret, error) {
	full := owner + "/" + repo
	if err := f.record(ctx, "GET "+full+" secrets", full); err != nil {
		return nil, err
	}
	ts := github.Timestamp{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var out []*github.Secret
	for _, name := range f.secrets[full] {
		out = append(out, &github.Secret{Name: name, CreatedAt: ts, UpdatedAt: ts})
	}
	return out, nil
}

func (f *fakeAPI) GetDefaultWorkflowPermissions(ctx context.Context, owner, repo string) (*github.DefaultWorkflowPermissionRepository, error) {
	full := owner + "/" + repo
	if err := f.record(ctx, "GET "+full+" permissions/workflow", full); err != nil {
		return nil, err
	}
	perm := f.permissions[full]
	if perm == "" {
		perm = "read"
	}
	return &github.DefaultWorkflowPermissionRepository{
		DefaultWorkflowPermissions:   github.Ptr(perm),
		CanApprovePullRequestReviews: github.Ptr(false),
	}, nil
}

func (f *fakeAPI) UpdateDefaultWorkflowPermissions(ctx context.Context, owner, repo string, _ github.DefaultWorkflowPermissionRepository) error {
	full := owner + "/" + repo
	if err := f.record(ctx, "PUT "+full+" permissions/workflow", full); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writes == nil {
		f.writes = map[string]int{}
	}
	f.writes[full]++
	return nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) auditedRepos() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, c := range f.calls {
		out[strings.Fields(c)[1]] = true
	}
	return out
}

func repoSeq(repos []*github.Repository, tailErr error) iter.Seq2[*github.Repository, error] {
	return func(yield func(*github.Repository, error) bool) {
		for _, r := range repos {
			if !yield(r, nil) {
				return
			}
		}
		if tailErr != nil {
			yield(nil, tailErr)
		}
	}
}

func ownedRepo(fullName string) *github.Repository {
	owner, name, _ := strings.Cut(fullName, "/")
	return &github.Repository{
		Name:       github.Ptr(name),
		FullName:   github.Ptr(fullName),
		Owner:      &github.User{Login: github.Ptr(owner)},
		Visibility: github.Ptr("public"),
	}
}

// fakeCheck lets tests script what a check does without any API.
type fakeCheck struct {
	kind checks.Kind
	run  func(ctx context.Context, repo *github.Repository) error
}

func (f fakeCheck) Kind() checks.Kind { return f.kind }

func (f fakeCheck) Run(ctx context.Context, _ *checks.Context, repo *github.Repository) error {
	if f.run == nil {
		return nil
	}
	return f.run(ctx, repo)
}

var errBoom = errors.New("boom")

func newObservedReporter() (*report.Reporter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return report.New(zap.New(core)), logs
}

func newTestContext(t *testing.T) (*checks.Context, *observer.ObservedLogs) {
	t.Helper()
	reporter, logs := newObservedReporter()
	cfg := config.New()
	require.NoError(t, cfg.Validate())
	cc, err := checks.NewContext(cfg, &fakeAPI{login: "octo"}, reporter)
	require.NoError(t, err)
	return cc, logs
}
