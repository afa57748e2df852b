package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/announcements"
	"github.com/mrlokans/lms/internal/database/assignments"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/chats"
	"github.com/mrlokans/lms/internal/database/content"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/profiles"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/database/quizzes"
	"github.com/mrlokans/lms/internal/database/users"
	"github.com/mrlokans/lms/internal/entities"
	"github.com/mrlokans/lms/internal/logger"
)

var (
	staffOnly = auth.RequireRole(entities.UserRoleStaff, entities.UserRoleAdmin)
	adminOnly = auth.RequireRole(entities.UserRoleAdmin)
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(auth.GetUserID))

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}
	router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())

	db := cfg.Database.DB
	userRepo := users.NewRepository(db)
	courseRepo := courses.NewRepository(db)
	batchRepo := batches.NewRepository(db)
	contentRepo := content.NewRepository(db)
	progressRepo := progress.NewRepository(db)

	access := NewAccess(userRepo, courseRepo, batchRepo)
	cipher := NewSessionCipher(cfg.Encryptor)

	health := NewHealthController(cfg.Database, cfg.Version)
	if cfg.Dispatcher != nil {
		health.WithTasks(cfg.Dispatcher)
	}
	if cfg.Scheduler != nil {
		health.WithMaintenance(cfg.Scheduler)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(authGroup)
		if len(cfg.CSRFSecret) > 0 {
			authGroup.GET("/csrf", auth.CSRFTokenIssuer(cfg.CSRFSecret, cfg.SecureCookies), cfg.AuthController.CSRFToken)
		}
	}

	// Accounts
	accounts := NewAccountsController(userRepo, cfg.AuthService, cfg.Audit)
	account := api.Group("/account")
	{
		account.GET("/settings", accounts.GetSettings)
		account.PATCH("/settings", accounts.UpdateSettings)
		account.GET("/name-verification", accounts.GetNameVerification)
		account.POST("/name-verification", accounts.SubmitNameVerification)
	}

	admin := api.Group("/admin", adminOnly)
	{
		admin.GET("/users", accounts.ListUsers)
		admin.POST("/users", accounts.CreateUser)
		admin.GET("/users/:id", accounts.GetUser)
		admin.PATCH("/users/:id/role", accounts.SetRole)
		admin.POST("/users/:id/activate", accounts.Activate)
		admin.POST("/users/:id/deactivate", accounts.Deactivate)
		admin.PUT("/users/:id/staff-profile", accounts.UpsertStaffProfile)
		admin.GET("/name-verifications", accounts.ListNameVerifications)
		admin.POST("/name-verifications/:id/review", accounts.ReviewNameVerification)

		auditController := NewAuditController(cfg.Audit)
		admin.GET("/audit", auditController.GetAuditEvents)
		admin.GET("/audit/types", auditController.ListEventTypes)
		admin.GET("/audit/:id", auditController.GetAuditEvent)

		tasksController := NewTasksController(cfg.Dispatcher)
		admin.GET("/tasks/types", tasksController.ListTaskTypes)
		admin.GET("/tasks/:id", tasksController.GetTaskStatus)
		admin.POST("/tasks/:type/run", tasksController.RunTask)

		if cfg.Settings != nil {
			maintenance := NewMaintenanceSettingsController(cfg.Settings, cfg.Scheduler, cfg.Audit)
			admin.GET("/maintenance", maintenance.GetSettings)
			admin.PUT("/maintenance", maintenance.UpdateSettings)
			admin.DELETE("/maintenance", maintenance.ClearSettings)
			admin.POST("/maintenance/run", maintenance.RunNow)
			admin.GET("/maintenance/status", maintenance.Status)
		}
	}

	// Catalog: public reads, staff writes
	catalog := NewCatalogController(courseRepo)
	categories := api.Group("/categories", auth.StaffWritesOnly())
	{
		categories.GET("", catalog.ListCategories)
		categories.GET("/:id", catalog.GetCategory)
		categories.POST("", catalog.CreateCategory)
		categories.PUT("/:id", catalog.UpdateCategory)
		categories.DELETE("/:id", catalog.DeleteCategory)
	}
	authors := api.Group("/authors", auth.StaffOrReadOnly())
	{
		authors.GET("", catalog.ListAuthors)
		authors.GET("/:id", catalog.GetAuthor)
		authors.POST("", catalog.CreateAuthor)
		authors.PUT("/:id", catalog.UpdateAuthor)
		authors.DELETE("/:id", catalog.DeleteAuthor)
	}
	faqs := api.Group("/faqs", auth.StaffWritesOnly())
	{
		faqs.GET("", catalog.ListFAQs)
		faqs.POST("", catalog.CreateFAQ)
		faqs.PUT("/:id", catalog.UpdateFAQ)
		faqs.DELETE("/:id", catalog.DeleteFAQ)
	}

	// Courses and reviews
	coursesController := NewCoursesController(courseRepo, cfg.Audit)
	enrollments := NewEnrollmentsController(courseRepo, contentRepo, progressRepo, batchRepo, access, cipher, cfg.Audit)
	courseGroup := api.Group("/courses", auth.StaffWritesOnly())
	{
		courseGroup.GET("", coursesController.ListCourses)
		courseGroup.GET("/:id", coursesController.GetCourse)
		courseGroup.GET("/:id/overview", auth.RequireAuth(), enrollments.Overview)
		courseGroup.POST("", coursesController.CreateCourse)
		courseGroup.PUT("/:id", coursesController.UpdateCourse)
		courseGroup.DELETE("/:id", adminOnly, coursesController.DeleteCourse)
		courseGroup.POST("/:id/archive", coursesController.ArchiveCourse)
		courseGroup.POST("/:id/unarchive", coursesController.UnarchiveCourse)
	}
	reviews := api.Group("/reviews")
	{
		reviews.GET("", coursesController.ListReviews)
		reviews.GET("/:id", coursesController.GetReview)
		reviews.POST("", auth.RequireAuth(), coursesController.CreateReview)
		reviews.PUT("/:id", auth.RequireAuth(), coursesController.UpdateReview)
		reviews.DELETE("/:id", auth.RequireAuth(), coursesController.DeleteReview)
	}

	enrollmentGroup := api.Group("/enrollments")
	{
		enrollmentGroup.GET("", enrollments.ListEnrollments)
		enrollmentGroup.POST("", enrollments.Enroll)
		enrollmentGroup.GET("/:id", enrollments.GetEnrollment)
		enrollmentGroup.POST("/:id/deactivate", enrollments.Deactivate)
		enrollmentGroup.PATCH("/:id/progress", enrollments.UpdateProgress)
	}

	// Content
	contentController := NewContentController(contentRepo, batchRepo, access, cipher, cfg.Dispatcher)
	syllabi := api.Group("/syllabi", auth.StaffOrReadOnly())
	{
		syllabi.GET("", contentController.ListSyllabi)
		syllabi.GET("/:id", contentController.GetSyllabus)
		syllabi.POST("", contentController.CreateSyllabus)
		syllabi.PUT("/:id", contentController.UpdateSyllabus)
		syllabi.DELETE("/:id", contentController.DeleteSyllabus)
	}
	videos := api.Group("/videos", auth.StaffOrReadOnly())
	{
		videos.GET("", contentController.ListVideos)
		videos.GET("/:id", contentController.GetVideo)
		videos.GET("/:id/navigation", contentController.VideoNavigation)
		videos.POST("", contentController.CreateVideo)
		videos.PUT("/:id", contentController.UpdateVideo)
		videos.DELETE("/:id", contentController.DeleteVideo)
	}
	liveSessions := api.Group("/live-sessions", auth.StaffOrReadOnly())
	{
		liveSessions.GET("", contentController.ListLiveSessions)
		liveSessions.GET("/:id", contentController.GetLiveSession)
		liveSessions.POST("", contentController.CreateLiveSession)
		liveSessions.PUT("/:id", contentController.UpdateLiveSession)
		liveSessions.DELETE("/:id", contentController.DeleteLiveSession)
	}

	// Progress
	progressController := NewProgressController(progressRepo, access, cfg.Dispatcher)
	progressGroup := api.Group("/progress")
	{
		progressGroup.POST("/videos/:id", progressController.UpdateVideo)
		progressGroup.GET("/syllabi/:id", progressController.GetSyllabus)
		progressGroup.POST("/syllabi/:id", progressController.MarkSyllabus)
		progressGroup.GET("/courses/:id", progressController.GetCourse)
		progressGroup.GET("/courses/:id/position", progressController.GetPosition)
		progressGroup.POST("/courses/:id/recompute", staffOnly, progressController.RecomputeCourse)
		progressGroup.GET("/batches/:id", staffOnly, progressController.GetBatch)
	}

	// Batches, their chats and notifications
	batchesController := NewBatchesController(batchRepo, access, cfg.Audit)
	chatsController := NewChatsController(chats.NewRepository(db), batchRepo, access)
	notificationsController := NewNotificationsController(notifications.NewRepository(db), userRepo, batchRepo, access, cfg.Dispatcher)
	batchGroup := api.Group("/batches")
	{
		batchGroup.GET("", batchesController.ListBatches)
		batchGroup.GET("/archived", batchesController.ListArchived)
		batchGroup.GET("/suspended", staffOnly, batchesController.ListSuspended)
		batchGroup.POST("", staffOnly, batchesController.CreateBatch)
		batchGroup.GET("/:id", batchesController.GetBatch)
		batchGroup.PUT("/:id", staffOnly, batchesController.UpdateBatch)
		batchGroup.DELETE("/:id", adminOnly, batchesController.DeleteBatch)
		batchGroup.POST("/:id/archive", staffOnly, batchesController.ArchiveBatch)
		batchGroup.POST("/:id/unarchive", staffOnly, batchesController.UnarchiveBatch)

		batchGroup.GET("/:id/students", batchesController.ListStudents)
		batchGroup.POST("/:id/students", staffOnly, batchesController.AddStudent)
		batchGroup.PUT("/:id/students/:student_id", staffOnly, batchesController.MoveStudent)
		batchGroup.DELETE("/:id/students/:student_id", staffOnly, batchesController.RemoveStudent)
		batchGroup.POST("/:id/students/:student_id/suspend", staffOnly, batchesController.SuspendStudent)
		batchGroup.POST("/:id/students/:student_id/unsuspend", staffOnly, batchesController.UnsuspendStudent)

		batchGroup.GET("/:id/staff", batchesController.ListStaff)
		batchGroup.POST("/:id/staff", staffOnly, batchesController.AssignStaff)
		batchGroup.DELETE("/:id/staff", staffOnly, batchesController.RemoveStaff)

		batchGroup.GET("/:id/chats", chatsController.ListMessages)
		batchGroup.POST("/:id/chats", chatsController.SendMessage)
		batchGroup.POST("/:id/notifications", staffOnly, notificationsController.SendToBatch)
	}
	chatGroup := api.Group("/chats")
	{
		chatGroup.GET("/unread-count", chatsController.UnreadCount)
		chatGroup.POST("/:id/read", chatsController.MarkRead)
	}

	notificationGroup := api.Group("/notifications")
	{
		notificationGroup.GET("", notificationsController.ListNotifications)
		notificationGroup.GET("/unread-count", notificationsController.UnreadCount)
		notificationGroup.POST("/read-all", notificationsController.MarkAllRead)
		notificationGroup.POST("/:id/read", notificationsController.MarkRead)
		notificationGroup.GET("/preferences", notificationsController.GetPreference)
		notificationGroup.PUT("/preferences", notificationsController.UpdatePreference)
		notificationGroup.POST("/broadcast", adminOnly, notificationsController.Broadcast)
	}

	// Quizzes
	quizzesController := NewQuizzesController(quizzes.NewRepository(db), access)
	quizGroup := api.Group("/quizzes")
	{
		quizGroup.GET("", quizzesController.ListQuizzes)
		quizGroup.GET("/:id", quizzesController.GetQuiz)
		quizGroup.POST("", staffOnly, quizzesController.CreateQuiz)
		quizGroup.PUT("/:id", staffOnly, quizzesController.UpdateQuiz)
		quizGroup.DELETE("/:id", staffOnly, quizzesController.DeleteQuiz)
		quizGroup.POST("/:id/questions", staffOnly, quizzesController.AddQuestion)
		quizGroup.POST("/:id/attempts", auth.RequireRole(entities.UserRoleStudent), quizzesController.SubmitAttempt)
		quizGroup.GET("/:id/attempts", staffOnly, quizzesController.ListQuizAttempts)
	}
	questionGroup := api.Group("/quiz-questions", staffOnly)
	{
		questionGroup.PUT("/:id", quizzesController.UpdateQuestion)
		questionGroup.DELETE("/:id", quizzesController.DeleteQuestion)
		questionGroup.POST("/:id/options", quizzesController.AddOption)
	}
	optionGroup := api.Group("/quiz-options", staffOnly)
	{
		optionGroup.PUT("/:id", quizzesController.UpdateOption)
		optionGroup.DELETE("/:id", quizzesController.DeleteOption)
	}
	api.GET("/quiz-attempts/mine", quizzesController.MyAttempts)

	// Assignments
	assignmentsController := NewAssignmentsController(assignments.NewRepository(db), access, cfg.Audit)
	assignmentGroup := api.Group("/assignments")
	{
		assignmentGroup.GET("", assignmentsController.ListAssignments)
		assignmentGroup.GET("/:id", assignmentsController.GetAssignment)
		assignmentGroup.POST("", staffOnly, assignmentsController.CreateAssignment)
		assignmentGroup.PUT("/:id", staffOnly, assignmentsController.UpdateAssignment)
		assignmentGroup.DELETE("/:id", staffOnly, assignmentsController.DeleteAssignment)
		assignmentGroup.POST("/:id/submissions", auth.RequireRole(entities.UserRoleStudent), assignmentsController.Submit)
		assignmentGroup.GET("/:id/submissions", staffOnly, assignmentsController.ListSubmissions)
	}
	submissionGroup := api.Group("/submissions")
	{
		submissionGroup.GET("/mine", assignmentsController.MySubmissions)
		submissionGroup.GET("/:id", assignmentsController.GetSubmission)
		submissionGroup.POST("/:id/grade", staffOnly, assignmentsController.GradeSubmission)
	}

	// Announcements
	announcementsController := NewAnnouncementsController(announcements.NewRepository(db), batchRepo, access, cfg.Dispatcher)
	announcementGroup := api.Group("/announcements")
	{
		announcementGroup.GET("", announcementsController.ListAnnouncements)
		announcementGroup.GET("/:id", announcementsController.GetAnnouncement)
		announcementGroup.POST("", announcementsController.CreateAnnouncement)
		announcementGroup.PUT("/:id", announcementsController.UpdateAnnouncement)
		announcementGroup.DELETE("/:id", announcementsController.DeleteAnnouncement)
	}

	// Profile
	profileController := NewProfileController(profiles.NewRepository(db))
	profile := api.Group("/profile")
	{
		profile.GET("/summary", profileController.Summary)

		profile.GET("/contact-info", profileController.GetContactInfo)
		profile.PUT("/contact-info", profileController.UpdateContactInfo)

		profile.GET("/work-experience", profileController.ListWorkExperience)
		profile.POST("/work-experience", profileController.CreateWorkExperience)
		profile.PUT("/work-experience/:id", profileController.UpdateWorkExperience)
		profile.DELETE("/work-experience/:id", profileController.DeleteWorkExperience)

		profile.GET("/education", profileController.ListEducation)
		profile.POST("/education", profileController.CreateEducation)
		profile.PUT("/education/:id", profileController.UpdateEducation)
		profile.DELETE("/education/:id", profileController.DeleteEducation)

		profile.GET("/badges", profileController.ListBadges)
		profile.POST("/badges", staffOnly, profileController.AwardBadge)
		profile.DELETE("/badges/:id", staffOnly, profileController.DeleteBadge)

		profile.GET("/work-preference", profileController.GetWorkPreference)
		profile.PUT("/work-preference", profileController.UpsertWorkPreference)

		profile.GET("/additional-info", profileController.GetAdditionalInfo)
		profile.PUT("/additional-info", profileController.UpdateAdditionalInfo)

		profile.GET("/links", profileController.ListLinks)
		profile.POST("/links", profileController.CreateLink)
		profile.PUT("/links/:id", profileController.UpdateLink)
		profile.DELETE("/links/:id", profileController.DeleteLink)
	}

	return router
}
