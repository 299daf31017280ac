package checks

import (
	"context"
	"errors"
	"fmt"

	"ghsec/internal/report"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
)

type defaultWorkflowPermissions struct{}

func (defaultWorkflowPermissions) Kind() Kind { return DefaultWorkflowPermissions }

func (c defaultWorkflowPermissions) Run(ctx context.Context, cc *Context, repo *github.Repository) error {
	owner, name, err := repoCoordinates(repo)
	if err != nil {
		return err
	}
	repoName := fullName(repo)

	current, err := cc.API.GetDefaultWorkflowPermissions(ctx, owner, name)
	if err != nil {
		return fmt.Errorf("get workflow permissions: %w", err)
	}
	if current == nil || current.DefaultWorkflowPermissions == nil {
		return errors.New("workflow permissions response: missing default_workflow_permissions")
	}
	if current.CanApprovePullRequestReviews == nil {
		return errors.New("workflow permissions response: missing can_approve_pull_request_reviews")
	}

	desired := cc.Config.DefaultWorkflowPermissions
	currentPermission := *current.DefaultWorkflowPermissions
	currentCanApprove := *current.CanApprovePullRequestReviews

	fields := []zap.Field{
		zap.String("current_permission", currentPermission),
		zap.String("desired_permission", desired.Permission),
		zap.Bool("current_can_approve", currentCanApprove),
		zap.Bool("desired_can_approve", desired.CanApprovePullRequestReviews),
	}
	finding := report.Finding{
		Severity:   report.SeverityInfo,
		Check:      c.Kind().String(),
		Repository: repoName,
		Fields:     fields,
	}

	if currentPermission == desired.Permission && currentCanApprove == desired.CanApprovePullRequestReviews {
		finding.Message = "default workflow permissions are compliant"
		cc.Reporter.Report(finding)
		return nil
	}

	if !cc.Config.Fix {
		finding.Message = "default workflow permissions differ from desired state"
		cc.Reporter.Report(finding)
		return nil
	}

	update := github.DefaultWorkflowPermissionRepository{
		DefaultWorkflowPermissions:   github.Ptr(desired.Permission),
		CanApprovePullRequestReviews: github.Ptr(desired.CanApprovePullRequestReviews),
	}
	if err := cc.API.UpdateDefaultWorkflowPermissions(ctx, owner, name, update); err != nil {
		return fmt.Errorf("set workflow permissions: %w", err)
	}

	finding.Message = "default workflow permissions updated"
	cc.Reporter.Report(finding)
	return nil
}
