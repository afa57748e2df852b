package settingsstore

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/lms/internal/entities"
)

var (
	ErrInvalidSchedule  = errors.New("invalid cron schedule")
	ErrInvalidRetention = errors.New("retention must be at least 1 day")
)

// Environment variables backing the maintenance settings.
const (
	envMaintenanceEnabled    = "MAINTENANCE_ENABLED"
	envMaintenanceSchedule   = "MAINTENANCE_SCHEDULE"
	envNotificationRetention = "NOTIFICATION_RETENTION_DAYS"
	envAuditRetention        = "AUDIT_RETENTION_DAYS"
)

// MaintenanceConfig is the effective configuration of the cleanup job.
type MaintenanceConfig struct {
	Enabled                   bool   `json:"enabled"`
	Schedule                  string `json:"schedule"`
	NotificationRetentionDays int    `json:"notification_retention_days"`
	AuditRetentionDays        int    `json:"audit_retention_days"`
}

// MaintenanceConfigInfo includes source information for each field
type MaintenanceConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string `json:"schedule"`
	ScheduleSource      string `json:"schedule_source"`
	ScheduleDescription string `json:"schedule_description"`

	NotificationRetentionDays   int    `json:"notification_retention_days"`
	NotificationRetentionSource string `json:"notification_retention_source"`

	AuditRetentionDays   int    `json:"audit_retention_days"`
	AuditRetentionSource string `json:"audit_retention_source"`
}

// MaintenanceUpdate carries the fields an admin wants to override. Nil
// fields are left alone.
type MaintenanceUpdate struct {
	Enabled                   *bool   `json:"enabled"`
	Schedule                  *string `json:"schedule"`
	NotificationRetentionDays *int    `json:"notification_retention_days"`
	AuditRetentionDays        *int    `json:"audit_retention_days"`
}

// MaintenanceStatus represents the last maintenance run
type MaintenanceStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"` // "success", "failed", ""
	Message   string     `json:"message,omitempty"`
}

func (s *SettingsStore) GetMaintenanceEnabled() (bool, string) {
	return s.lookupBool(entities.SettingKeyMaintenanceEnabled, envMaintenanceEnabled, s.maintenance.Enabled)
}

func (s *SettingsStore) GetMaintenanceSchedule() (string, string) {
	return s.lookup(entities.SettingKeyMaintenanceSchedule, envMaintenanceSchedule, s.maintenance.Schedule)
}

func (s *SettingsStore) GetNotificationRetentionDays() (int, string) {
	return s.lookupInt(entities.SettingKeyNotificationRetentionDays, envNotificationRetention, s.maintenance.NotificationRetentionDays)
}

func (s *SettingsStore) GetAuditRetentionDays() (int, string) {
	return s.lookupInt(entities.SettingKeyAuditRetentionDays, envAuditRetention, s.audit.RetentionDays)
}

// GetMaintenanceConfig returns the effective configuration
func (s *SettingsStore) GetMaintenanceConfig() MaintenanceConfig {
	enabled, _ := s.GetMaintenanceEnabled()
	schedule, _ := s.GetMaintenanceSchedule()
	notif, _ := s.GetNotificationRetentionDays()
	audit, _ := s.GetAuditRetentionDays()
	return MaintenanceConfig{
		Enabled:                   enabled,
		Schedule:                  schedule,
		NotificationRetentionDays: notif,
		AuditRetentionDays:        audit,
	}
}

// GetMaintenanceConfigInfo returns the configuration with source information
func (s *SettingsStore) GetMaintenanceConfigInfo() MaintenanceConfigInfo {
	var info MaintenanceConfigInfo
	info.Enabled, info.EnabledSource = s.GetMaintenanceEnabled()
	info.Schedule, info.ScheduleSource = s.GetMaintenanceSchedule()
	info.ScheduleDescription = GetCronDescription(info.Schedule)
	info.NotificationRetentionDays, info.NotificationRetentionSource = s.GetNotificationRetentionDays()
	info.AuditRetentionDays, info.AuditRetentionSource = s.GetAuditRetentionDays()
	return info
}

// UpdateMaintenance validates and stores the given overrides atomically.
func (s *SettingsStore) UpdateMaintenance(u MaintenanceUpdate) error {
	values := map[string]string{}
	if u.Enabled != nil {
		values[entities.SettingKeyMaintenanceEnabled] = strconv.FormatBool(*u.Enabled)
	}
	if u.Schedule != nil {
		if err := ValidateCronSchedule(*u.Schedule); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		values[entities.SettingKeyMaintenanceSchedule] = *u.Schedule
	}
	if u.NotificationRetentionDays != nil {
		if *u.NotificationRetentionDays < 1 {
			return ErrInvalidRetention
		}
		values[entities.SettingKeyNotificationRetentionDays] = strconv.Itoa(*u.NotificationRetentionDays)
	}
	if u.AuditRetentionDays != nil {
		if *u.AuditRetentionDays < 1 {
			return ErrInvalidRetention
		}
		values[entities.SettingKeyAuditRetentionDays] = strconv.Itoa(*u.AuditRetentionDays)
	}
	if len(values) == 0 {
		return nil
	}
	return s.repo.SetMany(values)
}

// ClearMaintenanceSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearMaintenanceSettings() error {
	keys := []string{
		entities.SettingKeyMaintenanceEnabled,
		entities.SettingKeyMaintenanceSchedule,
		entities.SettingKeyNotificationRetentionDays,
		entities.SettingKeyAuditRetentionDays,
	}
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil {
			return err
		}
	}
	return nil
}

// GetMaintenanceStatus returns the outcome of the last run
func (s *SettingsStore) GetMaintenanceStatus() MaintenanceStatus {
	status := MaintenanceStatus{}

	if v, err := s.repo.GetValue(entities.SettingKeyMaintenanceLastAt, ""); err == nil && v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			status.LastRunAt = &ts
		}
	}
	status.Status, _ = s.repo.GetValue(entities.SettingKeyMaintenanceLastStatus, "")
	status.Message, _ = s.repo.GetValue(entities.SettingKeyMaintenanceLastMessage, "")
	return status
}

// SetMaintenanceStatus records the outcome of a run
func (s *SettingsStore) SetMaintenanceStatus(status, message string) error {
	return s.repo.SetMany(map[string]string{
		entities.SettingKeyMaintenanceLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyMaintenanceLastStatus:  status,
		entities.SettingKeyMaintenanceLastMessage: message,
	})
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next run happens after now
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
