package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/httputil"
	"github.com/aristath/folio/internal/modules/prices"
)

// RequestBudget reports the remaining upstream request budget
type RequestBudget interface {
	GetRemainingRequests() int
}

// JobCounter reports how many jobs are scheduled
type JobCounter interface {
	Len() int
}

// SystemHandlers serves operational endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	refresher *prices.Refresher
	budget    RequestBudget
	jobs      JobCounter
	startedAt time.Time
	stats     func() (float64, float64)
}

// NewSystemHandlers creates system handlers. refresher, budget and jobs may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	refresher *prices.Refresher,
	budget RequestBudget,
	jobs JobCounter,
) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		refresher: refresher,
		budget:    budget,
		jobs:      jobs,
		startedAt: time.Now(),
	}
	h.stats = h.getSystemStats
	return h
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/system/status", h.HandleSystemStatus) // Host and database health
	r.Get("/test-db", h.HandleTestDB)             // SELECT 1 + 1 probe
}

// DatabaseStatus is the health of one database
type DatabaseStatus struct {
	Name   string  `json:"name"`
	SizeMB float64 `json:"size_mb"`
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status            string           `json:"status"`
	CPUPercent        float64          `json:"cpu_percent"`
	MemoryPercent     float64          `json:"memory_percent"`
	Databases         []DatabaseStatus `json:"databases"`
	PricesAsOf        *time.Time       `json:"prices_as_of,omitempty"`
	StockRequestsLeft *int             `json:"stock_requests_left,omitempty"`
	ScheduledJobs     int              `json:"scheduled_jobs"`
	UptimeSeconds     int64            `json:"uptime_seconds"`
}

// HandleSystemStatus returns host load and database health. A failing
// database degrades the status but still answers 200.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := SystemStatusResponse{
		Status:        "healthy",
		Databases:     make([]DatabaseStatus, 0, len(h.databases)),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	response.CPUPercent, response.MemoryPercent = h.stats()

	for _, db := range h.databases {
		status := DatabaseStatus{Name: db.Name(), OK: true}
		if info, err := os.Stat(db.Path()); err == nil {
			status.SizeMB = float64(info.Size()) / 1024 / 1024
		}
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database check failed")
			status.OK = false
			status.Error = err.Error()
			response.Status = "degraded"
		}
		response.Databases = append(response.Databases, status)
	}

	if h.refresher != nil {
		if snap, ok := h.refresher.Snapshot(); ok {
			asOf := snap.AsOf
			response.PricesAsOf = &asOf
		}
	}
	if h.budget != nil {
		left := h.budget.GetRemainingRequests()
		response.StockRequestsLeft = &left
	}
	if h.jobs != nil {
		response.ScheduledJobs = h.jobs.Len()
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, response)
}

// HandleTestDB runs a trivial query against the main database
func (h *SystemHandlers) HandleTestDB(w http.ResponseWriter, r *http.Request) {
	if len(h.databases) == 0 {
		httputil.WriteJSON(w, h.log, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "database not available",
		})
		return
	}

	result, err := h.databases[0].Probe(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{
		"message": "Database connected!",
		"result":  result,
	})
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled over
// 100ms so the endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
