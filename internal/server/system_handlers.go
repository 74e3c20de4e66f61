package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/quantrisk/fairsim/internal/database"
)

// SystemHandlers handles system monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	scenariosDB *database.DB
	cacheDB     *database.DB
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(log zerolog.Logger, dataDir string, scenariosDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		scenariosDB: scenariosDB,
		cacheDB:     cacheDB,
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string            `json:"status"` // "healthy" or "unhealthy"
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMPercent    float64           `json:"ram_percent"`
	ScenarioCount int               `json:"scenario_count"`
	CachedResults int               `json:"cached_results"`
	Databases     map[string]string `json:"databases"` // db name -> "ok" or error text
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	DiskFreeMB  float64  `json:"disk_free_mb,omitempty"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name            string  `json:"name"`
	Path            string  `json:"path"`
	SizeMB          float64 `json:"size_mb"`
	WALSizeMB       float64 `json:"wal_size_mb"`
	OpenConnections int     `json:"open_connections"`
	InUse           int     `json:"in_use"`
}

// HandleSystemStatus returns system status: process stats plus per-database health.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	status := "healthy"
	databases := make(map[string]string)
	for _, db := range []*database.DB{h.scenariosDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(r.Context()); err != nil {
			databases[db.Name()] = err.Error()
			status = "unhealthy"
		} else {
			databases[db.Name()] = "ok"
		}
	}

	scenarioCount := h.countRows(h.scenariosDB, "scenarios")
	cachedResults := h.countRows(h.cacheDB, "result_cache")

	response := SystemStatusResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		ScenarioCount: scenarioCount,
		CachedResults: cachedResults,
		Databases:     databases,
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns per-database file sizes and connection pool stats.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for _, db := range []*database.DB{h.scenariosDB, h.cacheDB} {
		if db == nil {
			continue
		}

		sizeMB := 0.0
		walSizeMB := 0.0
		if stats, err := db.GetStats(); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
		} else {
			sizeMB = float64(stats.SizeBytes) / 1024 / 1024
			walSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
		}
		totalSizeMB += sizeMB + walSizeMB

		pool := db.Conn().Stats()
		databases = append(databases, DBInfo{
			Name:            db.Name(),
			Path:            db.Path(),
			SizeMB:          sizeMB,
			WALSizeMB:       walSizeMB,
			OpenConnections: pool.OpenConnections,
			InUse:           pool.InUse,
		})
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		response.DiskFreeMB = float64(usage.Free) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *SystemHandlers) countRows(db *database.DB, table string) int {
	if db == nil {
		return 0
	}

	var count int
	err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		h.log.Warn().Err(err).Str("table", table).Msg("Failed to count rows")
		return 0
	}
	return count
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms CPU sampling window to keep the endpoint responsive.
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

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
