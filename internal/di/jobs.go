package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/reliability"
)

// clientDataCleanupSchedule runs the cache sweep once a day at 02:00.
const clientDataCleanupSchedule = "0 0 2 * * *"

// RegisterJobs registers all background jobs with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.Scheduler == nil || container.PriceRefresher == nil {
		return nil, fmt.Errorf("services must be initialized first")
	}

	instances := &JobInstances{}

	// Job 1: Price refresh
	instances.PriceRefresh = container.PriceRefresher
	if err := container.Scheduler.AddJob(cfg.PriceRefreshSchedule, instances.PriceRefresh); err != nil {
		return nil, fmt.Errorf("failed to register price refresh job: %w", err)
	}

	// Job 2: Expired cache sweep
	instances.ClientDataCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := container.Scheduler.AddJob(clientDataCleanupSchedule, instances.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register client data cleanup job: %w", err)
	}

	// Job 3: Integrity checks, WAL checkpoints, disk space
	instances.Maintenance = reliability.NewMaintenanceJob(container.Databases(), cfg.DataDir, log)
	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	// Job 4: Off-site backup
	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
		if err := container.Scheduler.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	} else {
		log.Info().Msg("BACKUP_BUCKET not set, cloud backups disabled")
	}

	log.Info().Int("jobs", container.Scheduler.Len()).Msg("Jobs registered")

	return instances, nil
}
