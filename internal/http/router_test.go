package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/crypto"
	"github.com/mrlokans/lms/internal/database"
	auditrepo "github.com/mrlokans/lms/internal/database/audit"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/entities"
	"github.com/mrlokans/lms/internal/tasks"
)

// apiHarness serves the full router over a throwaway database. Tasks run
// inline and callers authenticate with bearer tokens.
type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	db     *database.Database
	auth   *auth.Service
	audit  *audit.Service
}

func setupAPI(t *testing.T) *apiHarness {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "lms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{
		SessionLifetime:      time.Hour,
		TokenExpiry:          24 * time.Hour,
		BcryptCost:           4,
		MaxLoginAttempts:     5,
		RateLimitWindow:      time.Minute,
		LockoutDuration:      time.Minute,
		VerificationTokenTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
		PublicURL:            "http://lms.test",
	}
	authService := auth.NewService(db.DB, authCfg, nil)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(auditService.Wait)

	notificationRepo := notifications.NewRepository(db.DB)
	dispatcher := tasks.NewDispatcher(nil, tasks.Handlers{
		Notifications: notificationRepo,
		Progress:      progress.NewRepository(db.DB),
		NotifCleaner:  notificationRepo,
		AuditCleaner:  auditService,
	})

	enc, err := crypto.NewEncryptorFromConfig("", "test-session-secret")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Database:    db,
		Audit:       auditService,
		AuthService: authService,
		Dispatcher:  dispatcher,
		Encryptor:   enc,
		Version:     "test",
	})

	return &apiHarness{t: t, router: router, db: db, auth: authService, audit: auditService}
}

// user creates an active, verified account and returns it with a bearer token.
func (h *apiHarness) user(email string, role entities.UserRole) (*entities.User, string) {
	h.t.Helper()
	u, err := h.auth.CreateUser(email, "Test "+string(role), "password123", role)
	require.NoError(h.t, err)
	token, err := h.auth.GenerateToken(u.ID)
	require.NoError(h.t, err)
	return u, token
}

func (h *apiHarness) create(value any) {
	h.t.Helper()
	require.NoError(h.t, h.db.DB.Create(value).Error)
}

func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// classroom is a course with one batch, one assigned staff member and one
// student in the batch.
type classroom struct {
	course       *entities.Course
	batch        *entities.Batch
	staff        *entities.User
	staffToken   string
	student      *entities.User
	studentToken string
}

func (h *apiHarness) classroom() *classroom {
	h.t.Helper()
	course := &entities.Course{Title: "Go in Practice"}
	h.create(course)
	batch := &entities.Batch{BatchName: "Spring", CourseID: course.ID}
	h.create(batch)

	staff, staffToken := h.user("tutor@example.com", entities.UserRoleStaff)
	h.create(&entities.BatchStaff{BatchID: batch.ID, StaffID: staff.ID})

	student, studentToken := h.user("student@example.com", entities.UserRoleStudent)
	h.create(&entities.BatchStudent{BatchID: batch.ID, StudentID: student.ID})
	h.create(&entities.Enrollment{UserID: student.ID, CourseID: course.ID, IsActive: true})

	return &classroom{
		course:       course,
		batch:        batch,
		staff:        staff,
		staffToken:   staffToken,
		student:      student,
		studentToken: studentToken,
	}
}

func TestRouter_Authentication(t *testing.T) {
	h := setupAPI(t)

	t.Run("public catalog needs no credentials", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, h.do("GET", "/api/courses", "", nil).Code)
		assert.Equal(t, http.StatusOK, h.do("GET", "/api/categories", "", nil).Code)
		assert.Equal(t, http.StatusOK, h.do("GET", "/health", "", nil).Code)
	})

	t.Run("private routes answer 401", func(t *testing.T) {
		w := h.do("GET", "/api/notifications", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication credentials were not provided.")
	})

	t.Run("anonymous writes on public prefixes answer 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, h.do("POST", "/api/courses", "", gin.H{"title": "x"}).Code)
		assert.Equal(t, http.StatusUnauthorized, h.do("POST", "/api/reviews", "", gin.H{"course_id": 1}).Code)
	})

	t.Run("admin routes reject students", func(t *testing.T) {
		_, token := h.user("someone@example.com", entities.UserRoleStudent)
		assert.Equal(t, http.StatusForbidden, h.do("GET", "/api/admin/users", token, nil).Code)
	})

	t.Run("admin routes accept admins", func(t *testing.T) {
		_, token := h.user("root@example.com", entities.UserRoleAdmin)
		assert.Equal(t, http.StatusOK, h.do("GET", "/api/admin/users", token, nil).Code)
		assert.Equal(t, http.StatusOK, h.do("GET", "/api/admin/audit/types", token, nil).Code)
	})
}

func TestRouter_Batches(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()
	_, adminToken := h.user("admin@example.com", entities.UserRoleAdmin)

	t.Run("admin creates a batch", func(t *testing.T) {
		w := h.do("POST", "/api/batches", adminToken, gin.H{"batch_name": "Autumn", "course_id": room.course.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var batch entities.Batch
		decodeInto(t, w, &batch)
		assert.Equal(t, "Autumn", batch.BatchName)
	})

	t.Run("end date before start date is rejected", func(t *testing.T) {
		w := h.do("POST", "/api/batches", adminToken, gin.H{
			"batch_name": "Broken",
			"course_id":  room.course.ID,
			"start_date": "2025-05-01T00:00:00Z",
			"end_date":   "2025-04-01T00:00:00Z",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("staff without batch management cannot create batches", func(t *testing.T) {
		w := h.do("POST", "/api/batches", room.staffToken, gin.H{"batch_name": "Nope", "course_id": room.course.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("members see the batch and outsiders do not", func(t *testing.T) {
		path := fmt.Sprintf("/api/batches/%d", room.batch.ID)
		assert.Equal(t, http.StatusOK, h.do("GET", path, room.studentToken, nil).Code)

		_, outsider := h.user("outsider@example.com", entities.UserRoleStudent)
		w := h.do("GET", path, outsider, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), msgNotInBatch)
	})

	t.Run("adding a student twice conflicts", func(t *testing.T) {
		path := fmt.Sprintf("/api/batches/%d/students", room.batch.ID)
		w := h.do("POST", path, adminToken, gin.H{"student_id": room.student.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("suspend and unsuspend", func(t *testing.T) {
		base := fmt.Sprintf("/api/batches/%d/students/%d", room.batch.ID, room.student.ID)

		w := h.do("POST", base+"/suspend", room.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "Student has been suspended.")

		w = h.do("POST", base+"/unsuspend", room.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "Student has been unsuspended.")
	})

	t.Run("students cannot delete batches", func(t *testing.T) {
		w := h.do("DELETE", fmt.Sprintf("/api/batches/%d", room.batch.ID), room.studentToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_Quizzes(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()

	w := h.do("POST", "/api/quizzes", room.staffToken, gin.H{
		"title":     "Basics",
		"duration":  10,
		"is_active": true,
		"batch_id":  room.batch.ID,
		"questions": []gin.H{
			{"text": "2+2?", "mark": 2, "options": []gin.H{
				{"text": "4", "is_correct": true},
				{"text": "5"},
			}},
			{"text": "Gopher?", "mark": 3, "options": []gin.H{
				{"text": "yes", "is_correct": true},
				{"text": "no"},
			}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var quiz entities.Quiz
	decodeInto(t, w, &quiz)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 5, quiz.TotalMarks)

	quizPath := fmt.Sprintf("/api/quizzes/%d", quiz.ID)

	t.Run("students do not see correct answers", func(t *testing.T) {
		w := h.do("GET", quizPath, room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "is_correct")
	})

	t.Run("staff see correct answers", func(t *testing.T) {
		w := h.do("GET", quizPath, room.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "is_correct")
	})

	t.Run("attempt is scored by marks of correct answers", func(t *testing.T) {
		first := quiz.Questions[0]
		second := quiz.Questions[1]
		var right, wrong uint
		for _, o := range first.Options {
			if o.IsCorrect {
				right = o.ID
			}
		}
		for _, o := range second.Options {
			if !o.IsCorrect {
				wrong = o.ID
			}
		}

		w := h.do("POST", quizPath+"/attempts", room.studentToken, gin.H{"answers": []gin.H{
			{"question_id": first.ID, "option_id": right},
			{"question_id": second.ID, "option_id": wrong},
		}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var attempt entities.QuizAttempt
		decodeInto(t, w, &attempt)
		assert.Equal(t, 2, attempt.Score)
	})

	t.Run("staff cannot submit attempts", func(t *testing.T) {
		w := h.do("POST", quizPath+"/attempts", room.staffToken, gin.H{"answers": []gin.H{
			{"question_id": quiz.Questions[0].ID},
		}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("students not enrolled are refused", func(t *testing.T) {
		_, token := h.user("late@example.com", entities.UserRoleStudent)
		w := h.do("POST", quizPath+"/attempts", token, gin.H{"answers": []gin.H{
			{"question_id": quiz.Questions[0].ID},
		}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("own attempts are listed", func(t *testing.T) {
		w := h.do("GET", "/api/quiz-attempts/mine", room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var attempts []entities.QuizAttempt
		decodeInto(t, w, &attempts)
		assert.Len(t, attempts, 1)
	})
}

func TestRouter_Assignments(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()

	w := h.do("POST", "/api/assignments", room.staffToken, gin.H{
		"course_id": room.course.ID,
		"title":     "Write a server",
		"due_date":  time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var assignment entities.Assignment
	decodeInto(t, w, &assignment)

	submitPath := fmt.Sprintf("/api/assignments/%d/submissions", assignment.ID)
	body := gin.H{"file_url": "https://files.example.com/server.zip"}

	w = h.do("POST", submitPath, room.studentToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submission entities.Submission
	decodeInto(t, w, &submission)

	t.Run("second submission conflicts", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, h.do("POST", submitPath, room.studentToken, body).Code)
	})

	t.Run("file url must be a url", func(t *testing.T) {
		_, token := h.user("other@example.com", entities.UserRoleStudent)
		w := h.do("POST", submitPath, token, gin.H{"file_url": "not a url"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("staff grade the submission", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/submissions/%d/grade", submission.ID), room.staffToken,
			gin.H{"grade": "A", "feedback": "clean"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var graded entities.Submission
		decodeInto(t, w, &graded)
		require.NotNil(t, graded.Grade)
		assert.Equal(t, "A", *graded.Grade)
		assert.NotNil(t, graded.GradedAt)
	})

	t.Run("students cannot grade", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/submissions/%d/grade", submission.ID), room.studentToken,
			gin.H{"grade": "A+"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_ChatsAndNotifications(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()
	chatPath := fmt.Sprintf("/api/batches/%d/chats", room.batch.ID)

	t.Run("student writes to the batch tutor", func(t *testing.T) {
		w := h.do("POST", chatPath, room.studentToken, gin.H{"receiver_id": room.staff.ID, "message": "hello"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = h.do("GET", "/api/chats/unread-count", room.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"unread_count":1}`, w.Body.String())
	})

	t.Run("student cannot write to another student", func(t *testing.T) {
		classmate, _ := h.user("classmate@example.com", entities.UserRoleStudent)
		h.create(&entities.BatchStudent{BatchID: room.batch.ID, StudentID: classmate.ID})

		w := h.do("POST", chatPath, room.studentToken, gin.H{"receiver_id": classmate.ID, "message": "psst"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Receiver must be a valid tutor in this batch")
	})

	t.Run("blank message is rejected", func(t *testing.T) {
		w := h.do("POST", chatPath, room.studentToken, gin.H{"receiver_id": room.staff.ID, "message": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Message cannot be empty.")
	})

	t.Run("staff notify the batch inline", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/batches/%d/notifications", room.batch.ID), room.staffToken,
			gin.H{"message": "Class moved to 6pm"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = h.do("GET", "/api/notifications/unread-count", room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"unread_count":1}`, w.Body.String())

		w = h.do("POST", "/api/notifications/read-all", room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"updated":1}`, w.Body.String())
	})

	t.Run("students cannot notify a batch", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/batches/%d/notifications", room.batch.ID), room.studentToken,
			gin.H{"message": "hi all"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_Progress(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()

	intro := &entities.Syllabus{CourseID: room.course.ID, Title: "Intro", Order: 1}
	wrapUp := &entities.Syllabus{CourseID: room.course.ID, Title: "Wrap-up", Order: 2}
	h.create(intro)
	h.create(wrapUp)
	first := &entities.Video{CourseID: room.course.ID, SyllabusID: &intro.ID, Title: "One", Duration: 100, Order: 1}
	second := &entities.Video{CourseID: room.course.ID, SyllabusID: &intro.ID, Title: "Two", Duration: 100, Order: 2}
	last := &entities.Video{CourseID: room.course.ID, SyllabusID: &wrapUp.ID, Title: "Three", Duration: 100, Order: 3}
	h.create(first)
	h.create(second)
	h.create(last)

	watch := func(video *entities.Video, seconds int) progress.UpdateResult {
		t.Helper()
		w := h.do("POST", fmt.Sprintf("/api/progress/videos/%d", video.ID), room.studentToken, gin.H{"watched_seconds": seconds})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result progress.UpdateResult
		decodeInto(t, w, &result)
		return result
	}

	result := watch(first, 90)
	assert.True(t, result.Progress.IsCompleted)
	assert.False(t, result.SyllabusCompleted)
	assert.Equal(t, 0, result.CourseProgress, "no syllabus is finished yet")

	result = watch(second, 95)
	assert.True(t, result.SyllabusCompleted)
	assert.Equal(t, 50, result.CourseProgress, "one of two syllabi finished")

	t.Run("course progress reports the syllabus breakdown", func(t *testing.T) {
		w := h.do("GET", fmt.Sprintf("/api/progress/courses/%d", room.course.ID), room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report progress.CourseProgress
		decodeInto(t, w, &report)
		assert.Equal(t, 50.0, report.Percent)
		assert.Equal(t, int64(1), report.CompletedSyllabi)
		assert.Equal(t, int64(2), report.TotalSyllabi)
		assert.Len(t, report.Syllabi, 2)
	})

	t.Run("students cannot read another student's course progress", func(t *testing.T) {
		other, _ := h.user("peer@example.com", entities.UserRoleStudent)
		path := fmt.Sprintf("/api/progress/courses/%d?user_id=%d", room.course.ID, other.ID)
		assert.Equal(t, http.StatusForbidden, h.do("GET", path, room.studentToken, nil).Code)
	})

	t.Run("staff recompute runs inline", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/progress/courses/%d/recompute", room.course.ID), room.staffToken, nil)
		assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	})
}

func TestRouter_ContentAccess(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()

	other := &entities.Course{Title: "Rust for Gophers"}
	h.create(other)
	foreign := &entities.Video{CourseID: other.ID, Title: "Ownership", Duration: 300, Order: 1}
	h.create(foreign)
	evening := &entities.Batch{BatchName: "Evening", CourseID: room.course.ID}
	h.create(evening)

	forbidden := func(t *testing.T, w *httptest.ResponseRecorder, message string) {
		t.Helper()
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		var body ErrorResponse
		decodeInto(t, w, &body)
		assert.Equal(t, message, body.Error)
	}

	t.Run("students cannot list videos of a course they are not enrolled in", func(t *testing.T) {
		w := h.do("GET", fmt.Sprintf("/api/videos?course_id=%d", other.ID), room.studentToken, nil)
		forbidden(t, w, msgNotEnrolled)
	})

	t.Run("students cannot open a video of a course they are not enrolled in", func(t *testing.T) {
		w := h.do("GET", fmt.Sprintf("/api/videos/%d", foreign.ID), room.studentToken, nil)
		forbidden(t, w, msgNotEnrolled)
	})

	t.Run("students cannot list live sessions of another batch", func(t *testing.T) {
		w := h.do("GET", fmt.Sprintf("/api/live-sessions?batch_id=%d", evening.ID), room.studentToken, nil)
		forbidden(t, w, msgNotInBatch)
	})

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	t.Run("live session must end after it starts", func(t *testing.T) {
		w := h.do("POST", "/api/live-sessions", room.staffToken, gin.H{
			"batch_id":   room.batch.ID,
			"title":      "Backwards",
			"start_time": start,
			"end_time":   start.Add(-time.Hour),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	t.Run("meeting password is encrypted at rest", func(t *testing.T) {
		w := h.do("POST", "/api/live-sessions", room.staffToken, gin.H{
			"batch_id":         room.batch.ID,
			"title":            "Office hours",
			"start_time":       start,
			"end_time":         start.Add(time.Hour),
			"meeting_link":     "https://meet.example.com/office-hours",
			"meeting_password": "s3cret",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created entities.LiveSession
		decodeInto(t, w, &created)
		assert.Equal(t, "s3cret", created.MeetingPassword)

		var stored entities.LiveSession
		require.NoError(t, h.db.DB.First(&stored, created.ID).Error)
		assert.NotEmpty(t, stored.MeetingPassword)
		assert.NotEqual(t, "s3cret", stored.MeetingPassword)

		w = h.do("GET", fmt.Sprintf("/api/live-sessions/%d", created.ID), room.studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var fetched entities.LiveSession
		decodeInto(t, w, &fetched)
		assert.Equal(t, "s3cret", fetched.MeetingPassword)
	})
}

func TestRouter_ProfileAndAnnouncements(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()
	_, adminToken := h.user("admin@example.com", entities.UserRoleAdmin)

	contactPath := fmt.Sprintf("/api/profile/contact-info?user_id=%d", room.student.ID)
	contact := gin.H{"github_url": "https://github.com/student"}

	t.Run("staff cannot edit another user's contact info", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, h.do("PUT", contactPath, room.staffToken, contact).Code)
	})

	t.Run("admins can edit another user's contact info", func(t *testing.T) {
		w := h.do("PUT", contactPath, adminToken, contact)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var info entities.ContactInfo
		decodeInto(t, w, &info)
		assert.Equal(t, room.student.ID, info.UserID)
		assert.Equal(t, "https://github.com/student", info.GithubURL)
	})

	announcement := gin.H{"title": "Schedule change", "message": "Thursday moves to Friday.", "batch_id": room.batch.ID}

	t.Run("staff without announcement access are rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, h.do("POST", "/api/announcements", room.staffToken, announcement).Code)
	})

	t.Run("students are rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, h.do("POST", "/api/announcements", room.studentToken, announcement).Code)
	})

	t.Run("admins can announce", func(t *testing.T) {
		w := h.do("POST", "/api/announcements", adminToken, announcement)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("staff with announcement access can announce", func(t *testing.T) {
		h.create(&entities.StaffProfile{UserID: room.staff.ID, HasAnnouncementManagementAccess: true})
		w := h.do("POST", "/api/announcements", room.staffToken, announcement)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created entities.Announcement
		decodeInto(t, w, &created)
		assert.Equal(t, room.staff.ID, created.SenderID)
	})
}

func TestRouter_CourseArchive(t *testing.T) {
	h := setupAPI(t)
	room := h.classroom()

	listed := func(t *testing.T, token string) []uint {
		t.Helper()
		w := h.do("GET", "/api/courses?include_archived=true", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page struct {
			Data []entities.Course `json:"data"`
		}
		decodeInto(t, w, &page)
		ids := make([]uint, 0, len(page.Data))
		for _, c := range page.Data {
			ids = append(ids, c.ID)
		}
		return ids
	}

	t.Run("students cannot archive", func(t *testing.T) {
		path := fmt.Sprintf("/api/courses/%d/archive", room.course.ID)
		assert.Equal(t, http.StatusForbidden, h.do("POST", path, room.studentToken, nil).Code)
	})

	w := h.do("POST", fmt.Sprintf("/api/courses/%d/archive", room.course.ID), room.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var archived entities.Course
	decodeInto(t, w, &archived)
	assert.True(t, archived.IsArchived)

	t.Run("include_archived is ignored for non-staff", func(t *testing.T) {
		assert.NotContains(t, listed(t, ""), room.course.ID)
		assert.NotContains(t, listed(t, room.studentToken), room.course.ID)
	})

	t.Run("include_archived is honored for staff", func(t *testing.T) {
		assert.Contains(t, listed(t, room.staffToken), room.course.ID)
	})

	t.Run("unarchive restores the course to the catalog", func(t *testing.T) {
		w := h.do("POST", fmt.Sprintf("/api/courses/%d/unarchive", room.course.ID), room.staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var restored entities.Course
		decodeInto(t, w, &restored)
		assert.False(t, restored.IsArchived)
		assert.Contains(t, listed(t, ""), room.course.ID)
	})
}
