package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/export"
)

const reportEmailTimeout = 30 * time.Second

type ReportEmail struct {
	Subject string
	Body    string
}

// BuildDailyReportEmail renders the daily report as a plain-text summary
// followed by the CSV export of the same rows.
func BuildDailyReportEmail(appName, period string, rows []analytics.ReportRow) (ReportEmail, error) {
	var csv strings.Builder
	if err := export.WriteCSV(&csv, analytics.ReportColumns, rows); err != nil {
		return ReportEmail{}, err
	}

	var income, vehicles int64
	for _, row := range rows {
		income += row.TotalIncome
		vehicles += row.Vehicles
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s daily parking report for %s\n\n", appName, period)
	fmt.Fprintf(&body, "Total income: %s\n", analytics.FormatRupiah(income))
	fmt.Fprintf(&body, "Vehicles: %d\n", vehicles)
	fmt.Fprintf(&body, "Days: %d\n\n", len(rows))
	for _, row := range rows {
		fmt.Fprintf(&body, "%s  %-16s %6d vehicles  %s occupancy\n",
			row.Date, analytics.FormatRupiah(row.TotalIncome), row.Vehicles, row.Occupancy)
	}
	body.WriteString("\nCSV\n")
	body.WriteString(csv.String())
	body.WriteString("\n")

	return ReportEmail{
		Subject: fmt.Sprintf("%s parking report %s", appName, period),
		Body:    body.String(),
	}, nil
}

// SendReportEmail delivers report to every recipient. Sends continue after a
// failure; the returned error joins every failed delivery.
func SendReportEmail(ctx context.Context, sender EmailSender, recipients []string, from string, report ReportEmail, logger *zerolog.Logger) error {
	if sender == nil {
		return fmt.Errorf("email sender is not configured")
	}
	if report.Subject == "" || report.Body == "" {
		return fmt.Errorf("report email is empty")
	}

	sendCtx, cancel := newEmailContext(ctx, reportEmailTimeout)
	defer cancel()

	var errs []error
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" {
			continue
		}
		if err := sender.SendFrom(sendCtx, recipient, report.Subject, report.Body, from); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send report email")
			}
			errs = append(errs, fmt.Errorf("send report to %s: %w", recipient, err))
			continue
		}
		if logger != nil {
			logger.Info().Str("recipient", recipient).Msg("Report email sent")
		}
	}
	return errors.Join(errs...)
}

// newEmailContext keeps the caller's values but not its cancellation, so a
// job shutting down mid-run does not abort deliveries already underway.
func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
