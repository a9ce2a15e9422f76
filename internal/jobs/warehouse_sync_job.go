package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WarehouseSyncJobName is the name of the warehouse snapshot sync job
const WarehouseSyncJobName = "warehouse_sync"

// SnapshotExporter pushes the current opportunity set to the reporting
// warehouse. The interface keeps the job decoupled from the service package.
type SnapshotExporter interface {
	ExportOpportunitySnapshots(ctx context.Context) (written int, err error)
}

// WarehouseSyncJob exports opportunity snapshots on a schedule
type WarehouseSyncJob struct {
	exporter SnapshotExporter
	logger   *zap.Logger
	timeout  time.Duration
}

func NewWarehouseSyncJob(exporter SnapshotExporter, logger *zap.Logger, timeout time.Duration) *WarehouseSyncJob {
	return &WarehouseSyncJob{
		exporter: exporter,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes one snapshot export. Called by the scheduler according to the
// configured cron expression.
func (j *WarehouseSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting warehouse snapshot sync")

	written, err := j.exporter.ExportOpportunitySnapshots(ctx)
	if err != nil {
		j.logger.Error("warehouse snapshot sync failed",
			zap.Error(err),
			zap.Int("rows_written", written),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("warehouse snapshot sync completed",
		zap.Int("rows_written", written),
		zap.Duration("duration", time.Since(start)))
}

// RegisterWarehouseSyncJob registers the snapshot export with the scheduler.
// The cronExpr uses the 6-field format with seconds (e.g. "0 0 2 * * *" for
// 02:00 nightly).
func RegisterWarehouseSyncJob(scheduler *Scheduler, exporter SnapshotExporter, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewWarehouseSyncJob(exporter, logger, timeout)
	return scheduler.AddJob(WarehouseSyncJobName, cronExpr, job.Run)
}
