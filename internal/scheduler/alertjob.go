package scheduler

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/beach-status-engine/internal/alert"
)

// AlertChecker drains pending transitions through the alert rules.
type AlertChecker interface {
	RunPending(ctx context.Context) (alert.Report, error)
}

// AlertJob runs the alert check on its own tick so alert latency is
// bounded by the alert interval, not the status interval.
type AlertJob struct {
	checker AlertChecker
	logger  *slog.Logger
}

// NewAlertJob creates an AlertJob.
func NewAlertJob(checker AlertChecker, logger *slog.Logger) *AlertJob {
	return &AlertJob{checker: checker, logger: logger}
}

func (j *AlertJob) Name() string { return "alert" }

func (j *AlertJob) Run(ctx context.Context) error {
	report, err := j.checker.RunPending(ctx)
	if err != nil {
		return err
	}
	if report.Evaluated > 0 {
		j.logger.Info("alert tick complete",
			"evaluated", report.Evaluated, "fired", report.Fired, "suppressed", report.Suppressed)
	}
	return nil
}
