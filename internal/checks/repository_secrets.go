package checks

import (
	"context"
	"fmt"
	"regexp"

	"ghsec/internal/report"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
)

type repositorySecrets struct{}

func (repositorySecrets) Kind() Kind { return RepositorySecrets }

func (c repositorySecrets) Run(ctx context.Context, cc *Context, repo *github.Repository) error {
	owner, name, err := repoCoordinates(repo)
	if err != nil {
		return err
	}
	repoName := fullName(repo)
	pattern := cc.Config.RepositorySecrets.WarnPattern()

	secrets, err := cc.API.ListRepoSecrets(ctx, owner, name)
	if err != nil {
		return fmt.Errorf("list secrets: %w", err)
	}

	for _, s := range secrets {
		cc.Reporter.Report(report.Finding{
			Severity:   ClassifySecret(s.Name, pattern),
			Check:      c.Kind().String(),
			Repository: repoName,
			Message:    "found secret",
			Fields: []zap.Field{
				zap.String("secret_name", s.Name),
				zap.Time("created_at", s.CreatedAt.Time),
				zap.Time("updated_at", s.UpdatedAt.Time),
			},
		})
	}

	if cc.Config.Fix && len(secrets) > 0 {
		cc.Reporter.ForRepository(repoName).Info("nothing to fix regarding secrets yet",
			zap.String("check", c.Kind().String()))
	}
	return nil
}

// ClassifySecret returns warning when name matches pattern and info otherwise.
// A nil pattern never warns.
func ClassifySecret(name string, pattern *regexp.Regexp) report.Severity {
	if pattern != nil && pattern.MatchString(name) {
		return report.SeverityWarning
	}
	return report.SeverityInfo
}
