package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ghsec/internal/checks"

	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewProcessor_Validates(t *testing.T) {
	_, err := NewProcessor(nil, nil)
	require.Error(t, err)

	cc, _ := newTestContext(t)
	_, err = NewProcessor(cc, []checks.Check{fakeCheck{}, nil})
	require.ErrorContains(t, err, "check 1 is nil")
}

func TestProcessor_RunsChecksInOrder(t *testing.T) {
	cc, logs := newTestContext(t)

	var order []checks.Kind
	record := func(k checks.Kind) fakeCheck {
		return fakeCheck{kind: k, run: func(context.Context, *github.Repository) error {
			order = append(order, k)
			return nil
		}}
	}
	p, err := NewProcessor(cc, []checks.Check{
		record(checks.RepositorySecrets),
		record(checks.DefaultWorkflowPermissions),
	})
	require.NoError(t, err)

	outcome := p.Process(context.Background(), ownedRepo("octo/a"))

	require.NoError(t, outcome.Err)
	assert.Equal(t, "octo/a", outcome.Repository)
	assert.Equal(t, []checks.Kind{checks.RepositorySecrets, checks.DefaultWorkflowPermissions}, order)
	assert.Equal(t, 2, logs.FilterMessage("running check").Len())
}

func TestProcessor_FailFast(t *testing.T) {
	cc, logs := newTestContext(t)

	var invoked []int
	step := func(i int, err error) fakeCheck {
		return fakeCheck{kind: checks.Kind(i), run: func(context.Context, *github.Repository) error {
			invoked = append(invoked, i)
			return err
		}}
	}
	p, err := NewProcessor(cc, []checks.Check{
		step(1, nil),
		step(2, errBoom),
		step(3, nil),
		step(4, nil),
	})
	require.NoError(t, err)

	outcome := p.Process(context.Background(), ownedRepo("octo/a"))

	assert.Equal(t, []int{1, 2}, invoked)
	require.Error(t, outcome.Err)
	assert.True(t, errors.Is(outcome.Err, errBoom))
	assert.Equal(t, "check repository_secrets: boom", outcome.Err.Error())

	failures := logs.FilterMessage("repository audit failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Equal(t, "octo/a", failures[0].ContextMap()["repository"])
	assert.Equal(t, "repository_secrets", failures[0].ContextMap()["check"])
}

func TestProcessor_FailureDoesNotAffectOtherRepositories(t *testing.T) {
	cc, _ := newTestContext(t)

	var mu sync.Mutex
	ran := map[string]int{}
	first := fakeCheck{kind: checks.RepositorySecrets, run: func(_ context.Context, repo *github.Repository) error {
		if repo.GetFullName() == "octo/bad" {
			return errBoom
		}
		return nil
	}}
	second := fakeCheck{kind: checks.DefaultWorkflowPermissions, run: func(_ context.Context, repo *github.Repository) error {
		mu.Lock()
		ran[repo.GetFullName()]++
		mu.Unlock()
		return nil
	}}
	p, err := NewProcessor(cc, []checks.Check{first, second})
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make([]RepoOutcome, 3)
	for i, name := range []string{"octo/a", "octo/bad", "octo/c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = p.Process(context.Background(), ownedRepo(name))
		}()
	}
	wg.Wait()

	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, map[string]int{"octo/a": 1, "octo/c": 1}, ran)
}

func TestSummary(t *testing.T) {
	s := Summary{Outcomes: []RepoOutcome{
		{Repository: "octo/z", Err: errors.New("z failed")},
		{Repository: "octo/ok"},
		{Repository: "octo/a", Err: errors.New("a failed")},
	}}

	assert.Equal(t, 2, s.Failed())
	failures := s.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "octo/a", failures[0].Repository)
	assert.Equal(t, "a failed\nz failed", s.Err().Error())

	assert.NoError(t, Summary{}.Err())
}
