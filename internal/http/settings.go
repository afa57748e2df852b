package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/scheduler"
	"github.com/mrlokans/lms/internal/settingsstore"
)

// MaintenanceSettingsController lets admins tune and trigger the cleanup job.
type MaintenanceSettingsController struct {
	store     *settingsstore.SettingsStore
	scheduler *scheduler.MaintenanceScheduler
	audit     *audit.Service
}

func NewMaintenanceSettingsController(
	store *settingsstore.SettingsStore,
	sched *scheduler.MaintenanceScheduler,
	auditService *audit.Service,
) *MaintenanceSettingsController {
	return &MaintenanceSettingsController{store: store, scheduler: sched, audit: auditService}
}

// MaintenanceSettingsResponse is the payload of the settings endpoints.
type MaintenanceSettingsResponse struct {
	settingsstore.MaintenanceConfigInfo
	SchedulerRunning bool                            `json:"scheduler_running"`
	Busy             bool                            `json:"busy"`
	NextRunAt        any                             `json:"next_run_at"`
	LastRun          settingsstore.MaintenanceStatus `json:"last_run"`
}

func (mc *MaintenanceSettingsController) response() MaintenanceSettingsResponse {
	resp := MaintenanceSettingsResponse{
		MaintenanceConfigInfo: mc.store.GetMaintenanceConfigInfo(),
		LastRun:               mc.store.GetMaintenanceStatus(),
	}
	if mc.scheduler != nil {
		resp.SchedulerRunning = mc.scheduler.IsRunning()
		resp.Busy = mc.scheduler.IsBusy()
		if next := mc.scheduler.GetNextRunTime(); next != nil {
			resp.NextRunAt = next
		}
	}
	return resp
}

// GetSettings handles GET /api/admin/maintenance
func (mc *MaintenanceSettingsController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, mc.response())
}

// UpdateSettings handles PUT /api/admin/maintenance. The scheduler picks up
// the new schedule immediately.
func (mc *MaintenanceSettingsController) UpdateSettings(c *gin.Context) {
	var req settingsstore.MaintenanceUpdate
	if !bind(c, &req) {
		return
	}
	if err := mc.store.UpdateMaintenance(req); err != nil {
		respondDomainError(c, err, "maintenance settings")
		return
	}
	mc.reschedule()
	mc.audit.LogSettings(GetUserID(c), "maintenance_update", "Updated maintenance settings")
	c.JSON(http.StatusOK, mc.response())
}

// ClearSettings handles DELETE /api/admin/maintenance, reverting to the
// environment and defaults.
func (mc *MaintenanceSettingsController) ClearSettings(c *gin.Context) {
	if err := mc.store.ClearMaintenanceSettings(); err != nil {
		respondInternalError(c, err, "clear maintenance settings")
		return
	}
	mc.reschedule()
	mc.audit.LogSettings(GetUserID(c), "maintenance_clear", "Cleared maintenance settings")
	c.JSON(http.StatusOK, mc.response())
}

func (mc *MaintenanceSettingsController) reschedule() {
	if mc.scheduler == nil {
		return
	}
	if err := mc.scheduler.Reschedule(); err != nil {
		log.Warn().Err(err).Msg("failed to reschedule maintenance")
	}
}

// RunNow handles POST /api/admin/maintenance/run
func (mc *MaintenanceSettingsController) RunNow(c *gin.Context) {
	if mc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "maintenance scheduler is not available")
		return
	}
	result, err := mc.scheduler.RunNow(c.Request.Context())
	if errors.Is(err, scheduler.ErrAlreadyRunning) {
		respondConflict(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "run maintenance")
		return
	}
	respondAccepted(c, "Maintenance started", result)
}

// Status handles GET /api/admin/maintenance/status
func (mc *MaintenanceSettingsController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, mc.store.GetMaintenanceStatus())
}
