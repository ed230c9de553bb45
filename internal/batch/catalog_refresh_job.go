package batch

import (
	"context"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/infrastructure/monitoring"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultCatalogRefreshSchedule = "*/15 * * * *"
	DefaultCatalogRefreshTimeout  = 30 * time.Second
)

// CatalogRefreshJob reloads the lender catalog from the database into the cache.
type CatalogRefreshJob struct {
	lenderService lender.LenderService
	logger        *slog.Logger
}

func NewCatalogRefreshJob(lenderSvc lender.LenderService, logger *slog.Logger) *CatalogRefreshJob {
	if lenderSvc == nil || logger == nil {
		panic("CatalogRefreshJob dependencies cannot be nil")
	}
	return &CatalogRefreshJob{
		lenderService: lenderSvc,
		logger:        logger.With("job", "CatalogRefresh"),
	}
}

func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting lender catalog refresh job.")

	count, err := j.lenderService.RefreshCatalog(ctx)
	if err != nil {
		monitoring.RecordCatalogRefresh("error", 0)
		j.logger.ErrorContext(ctx, "Lender catalog refresh failed.", slog.Any("error", err), slog.Duration("duration", time.Since(startTime)))
		return fmt.Errorf("catalog refresh failed: %w", err)
	}

	monitoring.RecordCatalogRefresh("success", count)
	j.logger.InfoContext(ctx, "Lender catalog refresh job finished successfully.",
		slog.Int("lenders_cached", count),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// Schedule registers job on c. Blank expr and non-positive timeout fall back to the defaults.
func Schedule(c *cron.Cron, expr string, timeout time.Duration, job *CatalogRefreshJob, logger *slog.Logger) (cron.EntryID, error) {
	if expr == "" {
		expr = DefaultCatalogRefreshSchedule
		logger.Warn("Catalog refresh schedule not configured, using default", "schedule", expr)
	}
	if timeout <= 0 {
		timeout = DefaultCatalogRefreshTimeout
	}

	jobID, err := c.AddJob(expr, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if runErr := job.Run(ctx); runErr != nil {
			logger.Error("Catalog refresh job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to schedule catalog refresh job with schedule %q: %w", expr, err)
	}

	logger.Info("Scheduled catalog refresh job", "schedule", expr, "timeout", timeout, "job_id", jobID)
	return jobID, nil
}
