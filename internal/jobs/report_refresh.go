package jobs

import (
	"context"
	"log/slog"
	"time"

	"jpsystems/internal/reports"
)

// ReportRefreshJob keeps the dashboard report warm so admin loads never wait
// on a full recomputation.
type ReportRefreshJob struct {
	service *reports.Service
	logger  *slog.Logger
}

func NewReportRefreshJob(service *reports.Service, logger *slog.Logger) *ReportRefreshJob {
	return &ReportRefreshJob{
		service: service,
		logger:  logger,
	}
}

// Run recomputes the report in UTC. Admin dashboard requests with an explicit
// timezone trigger their own refresh; this keeps the default view current.
func (j *ReportRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := j.service.Refresh(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	j.logger.Debug("Refreshed dashboard report",
		slog.Int("visitors", report.Visitors),
		slog.Int("registrations", report.Registrations))
	return nil
}
