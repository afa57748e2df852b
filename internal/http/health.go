package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type queueMode interface {
	Async() bool
}

type cronState interface {
	IsRunning() bool
}

// HealthController reports database reachability. Task queue and maintenance
// state are informational and never make the service unhealthy.
type HealthController struct {
	db          *database.Database
	version     string
	tasks       queueMode
	maintenance cronState
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// WithTasks adds the task queue mode to the checks.
func (h *HealthController) WithTasks(tasks queueMode) *HealthController {
	h.tasks = tasks
	return h
}

// WithMaintenance adds the maintenance scheduler state to the checks.
func (h *HealthController) WithMaintenance(m cronState) *HealthController {
	h.maintenance = m
	return h
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{"database": "not configured"}
	healthy := true

	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			healthy = false
		}
	}
	if h.tasks != nil {
		checks["tasks"] = "inline"
		if h.tasks.Async() {
			checks["tasks"] = "queued"
		}
	}
	if h.maintenance != nil {
		checks["maintenance"] = "stopped"
		if h.maintenance.IsRunning() {
			checks["maintenance"] = "scheduled"
		}
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Ping handles GET /ping
func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
