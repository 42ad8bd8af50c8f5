package reliability

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/database"
	testingpkg "github.com/aristath/folio/internal/testing"
)

func newMaintenanceJob(t *testing.T, free uint64, err error) *MaintenanceJob {
	t.Helper()
	db := testingpkg.NewTestDB(t, "folio")
	cache := testingpkg.NewTestDB(t, "client_data")
	job := NewMaintenanceJob([]*database.DB{db, cache}, t.TempDir(), zerolog.Nop())
	job.diskUsage = func(string) (*disk.UsageStat, error) {
		if err != nil {
			return nil, err
		}
		return &disk.UsageStat{Free: free, UsedPercent: 50}, nil
	}
	return job
}

func TestMaintenanceJob_Name(t *testing.T) {
	job := newMaintenanceJob(t, 100<<30, nil)
	assert.Equal(t, "daily_maintenance", job.Name())
}

func TestMaintenanceJob_Run(t *testing.T) {
	require.NoError(t, newMaintenanceJob(t, 100<<30, nil).Run())
}

func TestMaintenanceJob_LowDiskOnlyWarns(t *testing.T) {
	require.NoError(t, newMaintenanceJob(t, 1<<30, nil).Run())
}

func TestMaintenanceJob_CriticalDisk(t *testing.T) {
	err := newMaintenanceJob(t, 100<<20, nil).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100 MB free")
}

func TestMaintenanceJob_DiskStatError(t *testing.T) {
	err := newMaintenanceJob(t, 0, errors.New("no such device")).Run()
	assert.Error(t, err)
}

func TestMaintenanceJob_RealDisk(t *testing.T) {
	job := NewMaintenanceJob(nil, t.TempDir(), zerolog.Nop())
	usage, err := job.diskUsage(job.dataDir)
	require.NoError(t, err)
	assert.Greater(t, usage.Total, uint64(0))
}
