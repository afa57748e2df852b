package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/quizzes"
	"github.com/mrlokans/lms/internal/entities"
)

// QuizzesController serves quizzes to students and their management to staff.
type QuizzesController struct {
	repo   *quizzes.Repository
	access *Access
}

func NewQuizzesController(repo *quizzes.Repository, access *Access) *QuizzesController {
	return &QuizzesController{repo: repo, access: access}
}

// StudentQuiz is the quiz detail shown to students: options carry no
// correctness flag.
type StudentQuiz struct {
	ID         uint              `json:"id"`
	Title      string            `json:"title"`
	Duration   int               `json:"duration"`
	TotalMarks int               `json:"total_marks"`
	BatchID    uint              `json:"batch_id"`
	SyllabusID *uint             `json:"module_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Questions  []StudentQuestion `json:"questions"`
}

type StudentQuestion struct {
	ID      uint            `json:"id"`
	Text    string          `json:"text"`
	Mark    int             `json:"mark"`
	Options []StudentOption `json:"options"`
}

type StudentOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func newStudentQuiz(q *entities.Quiz) StudentQuiz {
	view := StudentQuiz{
		ID:         q.ID,
		Title:      q.Title,
		Duration:   q.Duration,
		TotalMarks: q.TotalMarks,
		BatchID:    q.BatchID,
		SyllabusID: q.SyllabusID,
		CreatedAt:  q.CreatedAt,
		Questions:  make([]StudentQuestion, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		sq := StudentQuestion{ID: question.ID, Text: question.Text, Mark: question.Mark}
		for _, o := range question.Options {
			sq.Options = append(sq.Options, StudentOption{ID: o.ID, Text: o.Text})
		}
		view.Questions = append(view.Questions, sq)
	}
	return view
}

type optionRequest struct {
	Text      string `json:"text" validate:"required,max=255"`
	IsCorrect bool   `json:"is_correct"`
}

type questionRequest struct {
	Text    string          `json:"text" validate:"required"`
	Mark    int             `json:"mark" validate:"gte=0"`
	Options []optionRequest `json:"options" validate:"omitempty,dive"`
}

func (r questionRequest) entity() entities.QuizQuestion {
	q := entities.QuizQuestion{Text: r.Text, Mark: r.Mark}
	for _, o := range r.Options {
		q.Options = append(q.Options, entities.QuizOption{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return q
}

type quizRequest struct {
	Title      string            `json:"title" validate:"required,max=255"`
	Duration   int               `json:"duration" validate:"required,gt=0"`
	IsActive   bool              `json:"is_active"`
	BatchID    uint              `json:"batch_id" validate:"required"`
	SyllabusID *uint             `json:"module_id"`
	Questions  []questionRequest `json:"questions" validate:"omitempty,dive"`
}

// ListQuizzes handles GET /api/quizzes?batch_id=&module_id=
// Students get the active quizzes of the courses they are enrolled in.
func (qc *QuizzesController) ListQuizzes(c *gin.Context) {
	if auth.IsStudent(c) {
		list, err := qc.repo.ListForStudent(GetUserID(c))
		if err != nil {
			respondInternalError(c, err, "list quizzes")
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	batchID, ok := optionalQueryID(c, "batch_id")
	if !ok {
		return
	}
	syllabusID, ok := optionalQueryID(c, "module_id")
	if !ok {
		return
	}
	list, err := qc.repo.ListQuizzes(quizzes.Filter{BatchID: batchID, SyllabusID: syllabusID})
	if err != nil {
		respondInternalError(c, err, "list quizzes")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetQuiz handles GET /api/quizzes/:id
func (qc *QuizzesController) GetQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	quiz, err := qc.repo.GetQuiz(id, true)
	if err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	if auth.IsStaffOrAdmin(c) {
		c.JSON(http.StatusOK, quiz)
		return
	}

	if !quiz.IsActive || quiz.Batch == nil {
		respondNotFound(c, "quiz")
		return
	}
	allowed, err := qc.access.CanViewCourse(c, quiz.Batch.CourseID)
	if err != nil {
		respondInternalError(c, err, "course access")
		return
	}
	if !allowed {
		respondForbidden(c, msgNotEnrolled)
		return
	}
	c.JSON(http.StatusOK, newStudentQuiz(quiz))
}

// CreateQuiz handles POST /api/quizzes
func (qc *QuizzesController) CreateQuiz(c *gin.Context) {
	var req quizRequest
	if !bind(c, &req) {
		return
	}
	creator := GetUserID(c)
	quiz := &entities.Quiz{
		Title:       strings.TrimSpace(req.Title),
		CreatedByID: &creator,
		Duration:    req.Duration,
		IsActive:    req.IsActive,
		BatchID:     req.BatchID,
		SyllabusID:  req.SyllabusID,
	}
	for _, q := range req.Questions {
		quiz.Questions = append(quiz.Questions, q.entity())
	}
	if err := qc.repo.CreateQuiz(quiz); err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	respondCreated(c, quiz)
}

// UpdateQuiz handles PUT /api/quizzes/:id. Questions are managed through
// their own endpoints.
func (qc *QuizzesController) UpdateQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req quizRequest
	if !bind(c, &req) {
		return
	}
	quiz, err := qc.repo.GetQuiz(id, false)
	if err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	quiz.Title = strings.TrimSpace(req.Title)
	quiz.Duration = req.Duration
	quiz.IsActive = req.IsActive
	quiz.BatchID = req.BatchID
	quiz.SyllabusID = req.SyllabusID
	quiz.Batch = nil
	if err := qc.repo.UpdateQuiz(quiz); err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	updated, err := qc.repo.GetQuiz(id, true)
	if err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteQuiz handles DELETE /api/quizzes/:id
func (qc *QuizzesController) DeleteQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := qc.repo.DeleteQuiz(id); err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	respondNoContent(c)
}

// --- Questions and options ---

// AddQuestion handles POST /api/quizzes/:id/questions
func (qc *QuizzesController) AddQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !bind(c, &req) {
		return
	}
	question := req.entity()
	question.QuizID = quizID
	if err := qc.repo.AddQuestion(&question); err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	respondCreated(c, question)
}

// UpdateQuestion handles PUT /api/quiz-questions/:id
func (qc *QuizzesController) UpdateQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !bind(c, &req) {
		return
	}
	question, err := qc.repo.GetQuestion(id)
	if err != nil {
		respondDomainError(c, err, "question")
		return
	}
	question.Text = req.Text
	if req.Mark > 0 {
		question.Mark = req.Mark
	}
	if err := qc.repo.UpdateQuestion(question); err != nil {
		respondDomainError(c, err, "question")
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion handles DELETE /api/quiz-questions/:id
func (qc *QuizzesController) DeleteQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := qc.repo.DeleteQuestion(id); err != nil {
		respondDomainError(c, err, "question")
		return
	}
	respondNoContent(c)
}

// AddOption handles POST /api/quiz-questions/:id/options
func (qc *QuizzesController) AddOption(c *gin.Context) {
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req optionRequest
	if !bind(c, &req) {
		return
	}
	option := &entities.QuizOption{QuestionID: questionID, Text: req.Text, IsCorrect: req.IsCorrect}
	if err := qc.repo.AddOption(option); err != nil {
		respondDomainError(c, err, "question")
		return
	}
	respondCreated(c, option)
}

// UpdateOption handles PUT /api/quiz-options/:id
func (qc *QuizzesController) UpdateOption(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req optionRequest
	if !bind(c, &req) {
		return
	}
	option, err := qc.repo.GetOption(id)
	if err != nil {
		respondDomainError(c, err, "option")
		return
	}
	option.Text = req.Text
	option.IsCorrect = req.IsCorrect
	if err := qc.repo.UpdateOption(option); err != nil {
		respondDomainError(c, err, "option")
		return
	}
	c.JSON(http.StatusOK, option)
}

// DeleteOption handles DELETE /api/quiz-options/:id
func (qc *QuizzesController) DeleteOption(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := qc.repo.DeleteOption(id); err != nil {
		respondDomainError(c, err, "option")
		return
	}
	respondNoContent(c)
}

// --- Attempts ---

type attemptRequest struct {
	Answers []quizzes.Answer `json:"answers" validate:"required,min=1,dive"`
}

// SubmitAttempt handles POST /api/quizzes/:id/attempts
func (qc *QuizzesController) SubmitAttempt(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req attemptRequest
	if !bind(c, &req) {
		return
	}
	attempt, err := qc.repo.SubmitAttempt(GetUserID(c), quizID, req.Answers)
	if err != nil {
		respondDomainError(c, err, "quiz")
		return
	}
	respondCreated(c, attempt)
}

// ListQuizAttempts handles GET /api/quizzes/:id/attempts (staff and admins)
func (qc *QuizzesController) ListQuizAttempts(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := qc.repo.ListAttempts(quizzes.AttemptFilter{QuizID: &quizID})
	if err != nil {
		respondInternalError(c, err, "list quiz attempts")
		return
	}
	c.JSON(http.StatusOK, list)
}

// MyAttempts handles GET /api/quiz-attempts/mine?quiz_id=
func (qc *QuizzesController) MyAttempts(c *gin.Context) {
	quizID, ok := optionalQueryID(c, "quiz_id")
	if !ok {
		return
	}
	self := GetUserID(c)
	list, err := qc.repo.ListAttempts(quizzes.AttemptFilter{StudentID: &self, QuizID: quizID})
	if err != nil {
		respondInternalError(c, err, "list attempts")
		return
	}
	c.JSON(http.StatusOK, list)
}
