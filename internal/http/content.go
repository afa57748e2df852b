package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/crypto"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/content"
	"github.com/mrlokans/lms/internal/entities"
	"github.com/mrlokans/lms/internal/tasks"
)

// SessionCipher seals live session meeting passwords before they are stored
// and opens them for participants.
type SessionCipher struct {
	enc *crypto.Encryptor
}

func NewSessionCipher(enc *crypto.Encryptor) *SessionCipher {
	return &SessionCipher{enc: enc}
}

func (sc *SessionCipher) Seal(password string) (string, error) {
	return sc.enc.Encrypt(password)
}

// Open decrypts the session's password in place. A password that fails to
// decrypt (e.g. after a key rotation) is blanked rather than leaked.
func (sc *SessionCipher) Open(s *entities.LiveSession) {
	plain, err := sc.enc.Decrypt(s.MeetingPassword)
	if err != nil {
		log.Warn().Err(err).Uint("live_session_id", s.ID).Msg("cannot decrypt meeting password")
		plain = ""
	}
	s.MeetingPassword = plain
}

func (sc *SessionCipher) OpenAll(list []entities.LiveSession) []entities.LiveSession {
	for i := range list {
		sc.Open(&list[i])
	}
	return list
}

// ContentController serves syllabi, videos and live sessions. Reads need an
// authenticated user; writes are restricted to staff by the router.
type ContentController struct {
	repo       *content.Repository
	batches    *batches.Repository
	access     *Access
	cipher     *SessionCipher
	dispatcher *tasks.Dispatcher
}

func NewContentController(repo *content.Repository, batchRepo *batches.Repository, access *Access, cipher *SessionCipher, dispatcher *tasks.Dispatcher) *ContentController {
	return &ContentController{repo: repo, batches: batchRepo, access: access, cipher: cipher, dispatcher: dispatcher}
}

// requireCourse responds 403 unless the caller may view the course.
func (cc *ContentController) requireCourse(c *gin.Context, courseID uint) bool {
	allowed, err := cc.access.CanViewCourse(c, courseID)
	if err != nil {
		respondInternalError(c, err, "course access")
		return false
	}
	if !allowed {
		respondForbidden(c, msgNotEnrolled)
		return false
	}
	return true
}

// recompute refreshes enrollment progress after the course's video set changed.
func (cc *ContentController) recompute(c *gin.Context, courseID uint) {
	if _, err := cc.dispatcher.RecomputeCourseProgress(c.Request.Context(), courseID); err != nil {
		log.Error().Err(err).Uint("course_id", courseID).Msg("failed to schedule progress recompute")
	}
}

// --- Syllabi ---

type syllabusRequest struct {
	CourseID    uint   `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"gte=0"`
}

// ListSyllabi handles GET /api/syllabi?course_id=&with_videos=
// Videos are included only for courses the caller may view.
func (cc *ContentController) ListSyllabi(c *gin.Context) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	withVideos := optionalQueryBool(c, "with_videos")
	includeVideos := withVideos != nil && *withVideos
	if includeVideos && !auth.IsStaffOrAdmin(c) {
		if courseID == nil {
			respondBadRequest(c, "course_id is required")
			return
		}
		if !cc.requireCourse(c, *courseID) {
			return
		}
	}

	list, err := cc.repo.ListSyllabi(courseID, includeVideos)
	if err != nil {
		respondInternalError(c, err, "list syllabi")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSyllabus handles GET /api/syllabi/:id (with videos)
func (cc *ContentController) GetSyllabus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	syllabus, err := cc.repo.GetSyllabus(id, true)
	if err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	if !cc.requireCourse(c, syllabus.CourseID) {
		return
	}
	c.JSON(http.StatusOK, syllabus)
}

// CreateSyllabus handles POST /api/syllabi
func (cc *ContentController) CreateSyllabus(c *gin.Context) {
	var req syllabusRequest
	if !bind(c, &req) {
		return
	}
	syllabus := &entities.Syllabus{
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Order:       req.Order,
	}
	if err := cc.repo.CreateSyllabus(syllabus); err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	cc.recompute(c, syllabus.CourseID)
	respondCreated(c, syllabus)
}

// UpdateSyllabus handles PUT /api/syllabi/:id. The course cannot change.
func (cc *ContentController) UpdateSyllabus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req syllabusRequest
	if !bind(c, &req) {
		return
	}
	syllabus, err := cc.repo.GetSyllabus(id, false)
	if err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	if req.CourseID != syllabus.CourseID {
		respondBadRequest(c, "course_id cannot be changed")
		return
	}
	syllabus.Title = strings.TrimSpace(req.Title)
	syllabus.Description = req.Description
	syllabus.Order = req.Order
	if err := cc.repo.UpdateSyllabus(syllabus); err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	c.JSON(http.StatusOK, syllabus)
}

// DeleteSyllabus handles DELETE /api/syllabi/:id
func (cc *ContentController) DeleteSyllabus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	syllabus, err := cc.repo.GetSyllabus(id, false)
	if err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	if err := cc.repo.DeleteSyllabus(id); err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	cc.recompute(c, syllabus.CourseID)
	respondNoContent(c)
}

// --- Videos ---

type videoRequest struct {
	CourseID    uint   `json:"course_id" validate:"required"`
	SyllabusID  *uint  `json:"syllabus_id"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" validate:"omitempty,url,max=500"`
	Duration    int    `json:"duration" validate:"required,gt=0"`
	Order       int    `json:"order" validate:"gte=0"`
}

func (r *videoRequest) apply(v *entities.Video) {
	v.CourseID = r.CourseID
	v.SyllabusID = r.SyllabusID
	v.Title = strings.TrimSpace(r.Title)
	v.Description = r.Description
	v.VideoURL = r.VideoURL
	v.Duration = r.Duration
	v.Order = r.Order
}

// ListVideos handles GET /api/videos?course_id=&syllabus_id=
// Students only see videos of courses they are enrolled in.
func (cc *ContentController) ListVideos(c *gin.Context) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	syllabusID, ok := optionalQueryID(c, "syllabus_id")
	if !ok {
		return
	}
	filter := content.VideoFilter{CourseID: courseID, SyllabusID: syllabusID}

	if !auth.IsStaffOrAdmin(c) {
		if courseID != nil && !cc.requireCourse(c, *courseID) {
			return
		}
		enrolled, err := cc.access.EnrolledCourseIDs(c)
		if err != nil {
			respondInternalError(c, err, "enrolled courses")
			return
		}
		filter.CourseIDs = enrolled
	}

	list, err := cc.repo.ListVideos(filter)
	if err != nil {
		respondInternalError(c, err, "list videos")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetVideo handles GET /api/videos/:id
func (cc *ContentController) GetVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	video, err := cc.repo.GetVideo(id)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	if !cc.requireCourse(c, video.CourseID) {
		return
	}
	c.JSON(http.StatusOK, video)
}

// VideoNavigation handles GET /api/videos/:id/navigation
func (cc *ContentController) VideoNavigation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	video, err := cc.repo.GetVideo(id)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	if !cc.requireCourse(c, video.CourseID) {
		return
	}
	nav, err := cc.repo.Navigation(id)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	c.JSON(http.StatusOK, nav)
}

// CreateVideo handles POST /api/videos
func (cc *ContentController) CreateVideo(c *gin.Context) {
	var req videoRequest
	if !bind(c, &req) {
		return
	}
	video := &entities.Video{}
	req.apply(video)
	if err := cc.repo.CreateVideo(video); err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	cc.recompute(c, video.CourseID)
	respondCreated(c, video)
}

// UpdateVideo handles PUT /api/videos/:id
func (cc *ContentController) UpdateVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req videoRequest
	if !bind(c, &req) {
		return
	}
	video, err := cc.repo.GetVideo(id)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	previousCourse := video.CourseID
	req.apply(video)
	if err := cc.repo.UpdateVideo(video); err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	cc.recompute(c, video.CourseID)
	if previousCourse != video.CourseID {
		cc.recompute(c, previousCourse)
	}
	c.JSON(http.StatusOK, video)
}

// DeleteVideo handles DELETE /api/videos/:id
func (cc *ContentController) DeleteVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	courseID, err := cc.repo.DeleteVideo(id)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	cc.recompute(c, courseID)
	respondNoContent(c)
}

// --- Live sessions ---

type liveSessionRequest struct {
	BatchID         uint      `json:"batch_id" validate:"required"`
	Title           string    `json:"title" validate:"required,max=255"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MeetingLink     string    `json:"meeting_link" validate:"omitempty,url,max=500"`
	MeetingID       string    `json:"meeting_id" validate:"max=100"`
	MeetingPassword string    `json:"meeting_password"`
}

func (cc *ContentController) applySession(req *liveSessionRequest, s *entities.LiveSession) error {
	sealed, err := cc.cipher.Seal(req.MeetingPassword)
	if err != nil {
		return err
	}
	s.BatchID = req.BatchID
	s.Title = strings.TrimSpace(req.Title)
	s.Description = req.Description
	s.StartTime = req.StartTime
	s.EndTime = req.EndTime
	s.MeetingLink = req.MeetingLink
	s.MeetingID = req.MeetingID
	s.MeetingPassword = sealed
	return nil
}

// ListLiveSessions handles GET /api/live-sessions?batch_id=
// Students only see sessions of batches they belong to.
func (cc *ContentController) ListLiveSessions(c *gin.Context) {
	batchID, ok := optionalQueryID(c, "batch_id")
	if !ok {
		return
	}
	filter := content.LiveSessionFilter{BatchID: batchID}

	if !auth.IsStaffOrAdmin(c) {
		if batchID != nil && !cc.access.requireInBatch(c, *batchID) {
			return
		}
		ids, err := cc.batches.BatchIDsForStudent(GetUserID(c), nil)
		if err != nil {
			respondInternalError(c, err, "student batches")
			return
		}
		if ids == nil {
			ids = []uint{}
		}
		filter.BatchIDs = ids
	}

	list, err := cc.repo.ListLiveSessions(filter)
	if err != nil {
		respondInternalError(c, err, "list live sessions")
		return
	}
	c.JSON(http.StatusOK, cc.cipher.OpenAll(list))
}

// GetLiveSession handles GET /api/live-sessions/:id
func (cc *ContentController) GetLiveSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	session, err := cc.repo.GetLiveSession(id)
	if err != nil {
		respondDomainError(c, err, "live session")
		return
	}
	if !auth.IsStaffOrAdmin(c) && !cc.access.requireInBatch(c, session.BatchID) {
		return
	}
	cc.cipher.Open(session)
	c.JSON(http.StatusOK, session)
}

// CreateLiveSession handles POST /api/live-sessions
func (cc *ContentController) CreateLiveSession(c *gin.Context) {
	var req liveSessionRequest
	if !bind(c, &req) {
		return
	}
	session := &entities.LiveSession{}
	if err := cc.applySession(&req, session); err != nil {
		respondInternalError(c, err, "seal meeting password")
		return
	}
	if err := cc.repo.CreateLiveSession(session); err != nil {
		respondDomainError(c, err, "live session")
		return
	}
	cc.cipher.Open(session)
	respondCreated(c, session)
}

// UpdateLiveSession handles PUT /api/live-sessions/:id
func (cc *ContentController) UpdateLiveSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req liveSessionRequest
	if !bind(c, &req) {
		return
	}
	session, err := cc.repo.GetLiveSession(id)
	if err != nil {
		respondDomainError(c, err, "live session")
		return
	}
	if err := cc.applySession(&req, session); err != nil {
		respondInternalError(c, err, "seal meeting password")
		return
	}
	if err := cc.repo.UpdateLiveSession(session); err != nil {
		respondDomainError(c, err, "live session")
		return
	}
	cc.cipher.Open(session)
	c.JSON(http.StatusOK, session)
}

// DeleteLiveSession handles DELETE /api/live-sessions/:id
func (cc *ContentController) DeleteLiveSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.repo.DeleteLiveSession(id); err != nil {
		respondDomainError(c, err, "live session")
		return
	}
	respondNoContent(c)
}
