package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/audit"
	"github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/email"
)

const (
	SessionPruneJobName = "session_prune"
	SessionPruneCron    = "*/10 * * * *"

	DailyReportJobName = "daily_report"
)

// RegisterSessionPruneJob sweeps expired session values every ten minutes.
func RegisterSessionPruneJob(svc *Service, pruner auth.Pruner) error {
	if pruner == nil {
		return fmt.Errorf("session prune job requires a pruner")
	}
	_, err := svc.AddJob(SessionPruneJobName, SessionPruneCron, time.Minute, func(ctx context.Context) {
		if _, err := PruneSessions(ctx, pruner, time.Now()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to prune sessions")
		}
	})
	return err
}

// PruneSessions removes session values that expired before now.
func PruneSessions(ctx context.Context, pruner auth.Pruner, now time.Time) (int, error) {
	removed, err := pruner.Prune(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if removed > 0 {
		log.Ctx(ctx).Info().Int("removed", removed).Msg("Pruned expired sessions")
	}
	return removed, nil
}

// ReportJob holds what the daily report needs to build and deliver itself.
type ReportJob struct {
	AppName    string
	Recipients []string
	From       string
	Sender     email.EmailSender
	Recorder   *audit.Recorder
	Location   *time.Location
}

// RegisterDailyReportJob emails the previous day's report on cronExpr.
func RegisterDailyReportJob(svc *Service, cronExpr string, job ReportJob) error {
	if job.Sender == nil {
		return fmt.Errorf("daily report job requires an email sender")
	}
	if len(job.Recipients) == 0 {
		return fmt.Errorf("daily report job requires recipients")
	}
	_, err := svc.AddJob(DailyReportJobName, cronExpr, 2*time.Minute, func(ctx context.Context) {
		if err := job.Run(ctx, time.Now()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to send daily report")
		}
	})
	return err
}

// Run sends the report for the calendar day before now and records it in the activity log.
func (j ReportJob) Run(ctx context.Context, now time.Time) error {
	loc := j.Location
	if loc == nil {
		loc = time.Local
	}
	day := now.In(loc).AddDate(0, 0, -1)
	period := day.Format(daterange.DateLayout)

	rows, err := analytics.DailyReport(daterange.Day(day))
	if err != nil {
		return fmt.Errorf("build report rows: %w", err)
	}
	report, err := email.BuildDailyReportEmail(j.AppName, period, rows)
	if err != nil {
		return fmt.Errorf("build report email: %w", err)
	}

	logger := log.Ctx(ctx)
	sendErr := email.SendReportEmail(ctx, j.Sender, j.Recipients, j.From, report, logger)

	if j.Recorder != nil {
		details := fmt.Sprintf("Daily report for %s sent to %d recipients", period, len(j.Recipients))
		if sendErr != nil {
			details = fmt.Sprintf("Daily report for %s failed: %v", period, sendErr)
		}
		if _, err := j.Recorder.Record(ctx, audit.BySystem("Daily Report", details)); err != nil {
			logger.Warn().Err(err).Msg("Failed to record daily report activity")
		}
	}
	return sendErr
}
