package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./lms.db"

	// DefaultMaintenanceSchedule runs cleanup daily at 03:00
	DefaultMaintenanceSchedule = "0 3 * * *"
)
