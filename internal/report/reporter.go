package report

import (
	"sync/atomic"

	"go.uber.org/zap"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is a single reportable observation about one repository. Findings
// exist only as log records; nothing keeps them after Report returns.
type Finding struct {
	Severity   Severity
	Check      string
	Repository string
	Message    string
	Fields     []zap.Field
}

// Event is a lifecycle record for the run:
// - run.started
// - repo.failed
// - run.finished
type Event struct {
	Type         string
	Login        string
	Repository   string
	Check        string
	Checks       []string
	Repositories int
	Failed       int
	Warnings     int64
	ExitCode     int
	Err          error
}

// Reporter emits findings and lifecycle events to a zap logger. It is safe for
// concurrent use.
type Reporter struct {
	logger   *zap.Logger
	findings atomic.Int64
	warnings atomic.Int64
}

func New(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger}
}

func (r *Reporter) Logger() *zap.Logger {
	return r.logger
}

// ForRepository returns a logger carrying the repository field.
func (r *Reporter) ForRepository(fullName string) *zap.Logger {
	return r.logger.With(zap.String("repository", fullName))
}

func (r *Reporter) Report(f Finding) {
	fields := make([]zap.Field, 0, len(f.Fields)+3)
	fields = append(fields,
		zap.String("repository", f.Repository),
		zap.String("check", f.Check),
		zap.String("severity", string(f.Severity)),
	)
	fields = append(fields, f.Fields...)

	r.findings.Add(1)
	switch f.Severity {
	case SeverityWarning:
		r.warnings.Add(1)
		r.logger.Warn(f.Message, fields...)
	default:
		r.logger.Info(f.Message, fields...)
	}
}

// Counts returns how many findings and how many warning findings have been
// reported so far.
func (r *Reporter) Counts() (findings, warnings int64) {
	return r.findings.Load(), r.warnings.Load()
}

func (r *Reporter) Event(e Event) {
	fields := []zap.Field{zap.String("event", e.Type)}
	if e.Login != "" {
		fields = append(fields, zap.String("login", e.Login))
	}
	if e.Repository != "" {
		fields = append(fields, zap.String("repository", e.Repository))
	}
	if e.Check != "" {
		fields = append(fields, zap.String("check", e.Check))
	}
	if len(e.Checks) > 0 {
		fields = append(fields, zap.Strings("checks", e.Checks))
	}

	switch e.Type {
	case "run.finished":
		fields = append(fields,
			zap.Int("repositories", e.Repositories),
			zap.Int("failed", e.Failed),
			zap.Int64("warnings", e.Warnings),
			zap.Int("exit_code", e.ExitCode),
		)
		if e.Failed > 0 {
			r.logger.Error("audit finished with failures", fields...)
			return
		}
		r.logger.Info("audit finished", fields...)
	case "repo.failed":
		fields = append(fields, zap.Error(e.Err))
		r.logger.Error("repository audit failed", fields...)
	default:
		r.logger.Info(e.Type, fields...)
	}
}
