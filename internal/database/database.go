package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lms/internal/entities"
)

// Models lists every table managed by AutoMigrate, in dependency order.
var Models = []any{
	&entities.User{},
	&entities.StaffProfile{},
	&entities.NameVerification{},
	&entities.UserToken{},
	&entities.Category{},
	&entities.Author{},
	&entities.Course{},
	&entities.LearningPoint{},
	&entities.CourseInclusion{},
	&entities.CourseSection{},
	&entities.Review{},
	&entities.FAQ{},
	&entities.Enrollment{},
	&entities.Batch{},
	&entities.BatchStudent{},
	&entities.BatchStaff{},
	&entities.Syllabus{},
	&entities.Video{},
	&entities.LiveSession{},
	&entities.VideoProgress{},
	&entities.SyllabusProgress{},
	&entities.Quiz{},
	&entities.QuizQuestion{},
	&entities.QuizOption{},
	&entities.QuizAttempt{},
	&entities.QuizAnswer{},
	&entities.Assignment{},
	&entities.Submission{},
	&entities.ChatMessage{},
	&entities.Notification{},
	&entities.NotificationPreference{},
	&entities.Announcement{},
	&entities.ContactInfo{},
	&entities.WorkExperience{},
	&entities.Education{},
	&entities.Badge{},
	&entities.WorkPreference{},
	&entities.AdditionalInfo{},
	&entities.AdditionalLink{},
	&entities.AuditEvent{},
	&entities.Setting{},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite database at dbPath with warning-level SQL
// logging and migrates the schema.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, logger.Warn)
}

// Open is NewDatabase with an explicit gorm log level.
func Open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("database initialized")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// withPragmas enables foreign keys and a busy timeout on the DSN.
func withPragmas(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on&_busy_timeout=5000"
}
