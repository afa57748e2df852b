// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, pragmas, migrations
//	├── dberr/           # Classification of driver errors
//	├── users/           # Accounts, staff profiles, name verification
//	├── courses/         # Catalog, reviews, FAQs, enrollments
//	├── batches/         # Cohorts, students, staff assignments
//	├── content/         # Syllabi, videos, live sessions
//	├── progress/        # Video and syllabus progress roll-ups
//	├── quizzes/         # Quizzes, questions, options, attempts
//	├── assignments/     # Assignments and graded submissions
//	├── chats/           # Batch-scoped direct messages
//	├── notifications/   # In-app notifications and preferences
//	├── announcements/   # Platform, course and batch announcements
//	├── profiles/        # Learner profile sections
//	├── audit/           # Audit trail
//	└── settings/        # Runtime setting overrides
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./lms.db")
//
//	coursesRepo := courses.NewRepository(db.DB)
//	batchesRepo := batches.NewRepository(db.DB)
//
//	course, err := coursesRepo.GetCourse(12)
//	list, err := batchesRepo.ListBatches(batches.Filter{}, viewer)
//
// Repositories return gorm errors unchanged. Callers classify them with
// dberr.IsNotFound and dberr.IsDuplicate; domain rule violations are
// reported through sentinel errors exported by each sub-package.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entities in Models
//  5. Add compile-time interface check next to the consuming interface
package database
