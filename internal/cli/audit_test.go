package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "ghsec/internal/github"
	"ghsec/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type auditHarness struct {
	exitCode *int
	logs     *observer.ObservedLogs
	puts     *int
}

// stubAudit points the audit command at a fake GitHub serving one owned
// repository, octo/demo, with a single DEPLOY_KEY secret and write-level
// default workflow permissions.
func stubAudit(t *testing.T, token string, tokenErr error) auditHarness {
	t.Helper()

	puts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"octo"}`)
	})
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"demo","full_name":"octo/demo","owner":{"login":"octo"},"visibility":"public"}]`)
	})
	mux.HandleFunc("/repos/octo/demo/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":1,"secrets":[{"name":"DEPLOY_KEY","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]}`)
	})
	mux.HandleFunc("/repos/octo/demo/actions/permissions/workflow", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprint(w, `{"default_workflow_permissions":"write","can_approve_pull_request_reviews":false}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	exitCode := -1

	oldExit, oldLogger, oldToken, oldClient := exitFunc, newLogger, resolveAuthToken, newAPIClient
	t.Cleanup(func() {
		exitFunc, newLogger, resolveAuthToken, newAPIClient = oldExit, oldLogger, oldToken, oldClient
	})

	exitFunc = func(code int) { exitCode = code }
	newLogger = func(level report.Level, format report.Format) (*zap.Logger, error) {
		return zap.New(core), nil
	}
	resolveAuthToken = func(ctx context.Context, provided string) (string, gh.AuthTokenSource, error) {
		return token, gh.AuthTokenSourceEnv, tokenErr
	}
	newAPIClient = func(ctx context.Context, token string, opts ...gh.Option) (gh.API, error) {
		return gh.NewClient(ctx, token, append(opts, gh.WithBaseURL(server.URL))...)
	}

	return auditHarness{exitCode: &exitCode, logs: logs, puts: &puts}
}

func TestAudit_WarningFindingsExitOne(t *testing.T) {
	h := stubAudit(t, "test-token", nil)

	_, _, err := executeCommand(t, "audit")
	require.NoError(t, err)

	assert.Equal(t, 1, *h.exitCode)
	assert.Equal(t, 1, h.logs.FilterMessage("logged in as").Len())

	secrets := h.logs.FilterMessage("found secret").All()
	require.Len(t, secrets, 1)
	assert.Equal(t, zapcore.WarnLevel, secrets[0].Level)
	assert.Equal(t, "DEPLOY_KEY", secrets[0].ContextMap()["secret_name"])
	assert.NotEmpty(t, secrets[0].ContextMap()["run_id"])

	drift := h.logs.FilterMessage("default workflow permissions differ from desired state").All()
	require.Len(t, drift, 1)
	assert.Zero(t, *h.puts)
}

func TestAudit_FixWritesDesiredPermissions(t *testing.T) {
	h := stubAudit(t, "test-token", nil)

	_, _, err := executeCommand(t, "audit", "--fix", "--checks", "default_workflow_permissions")
	require.NoError(t, err)

	assert.Equal(t, -1, *h.exitCode, "clean run must not call exit")
	assert.Equal(t, 1, *h.puts)
	assert.Equal(t, 1, h.logs.FilterMessage("default workflow permissions updated").Len())
}

func TestAudit_ScanAlias(t *testing.T) {
	h := stubAudit(t, "test-token", nil)

	_, _, err := executeCommand(t, "scan", "--checks", "repository_secrets", "--repository-secrets-warn-secret-names", "^NEVER$")
	require.NoError(t, err)
	assert.Equal(t, -1, *h.exitCode)
	assert.Equal(t, 1, h.logs.FilterMessage("found secret").FilterLevelExact(zapcore.InfoLevel).Len())
}

func TestAudit_FatalErrorsExitThree(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		tokenErr error
		args     []string
	}{
		{name: "invalid permission", token: "t", args: []string{"--default-workflow-permissions", "admin"}},
		{name: "unknown check", token: "t", args: []string{"--checks", "branch_protection"}},
		{name: "invalid warn pattern", token: "t", args: []string{"--repository-secrets-warn-secret-names", "(["}},
		{name: "negative concurrency", token: "t", args: []string{"--concurrency", "-1"}},
		{name: "no token", token: ""},
		{name: "token lookup fails", tokenErr: errors.New("gh crashed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := stubAudit(t, tt.token, tt.tokenErr)

			_, _, err := executeCommand(t, append([]string{"audit"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, 3, *h.exitCode)
		})
	}
}
