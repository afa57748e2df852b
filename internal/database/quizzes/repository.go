// Package quizzes provides database operations for quizzes, their questions
// and options, and scored student attempts.
//
// # Usage
//
//	repo := quizzes.NewRepository(db)
//	attempt, err := repo.SubmitAttempt(studentID, quizID, []quizzes.Answer{{QuestionID: 1, OptionID: &optionID}})
package quizzes

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var (
	ErrQuizInactive    = errors.New("quiz is not active")
	ErrNotEnrolled     = errors.New("not enrolled in the quiz course")
	ErrUnknownQuestion = errors.New("question does not belong to this quiz")
	ErrUnknownOption   = errors.New("option does not belong to this question")
	ErrDuplicateAnswer = errors.New("question answered more than once")
)

// Filter narrows ListQuizzes.
type Filter struct {
	BatchID    *uint
	SyllabusID *uint
	ActiveOnly bool
}

// AttemptFilter narrows ListAttempts.
type AttemptFilter struct {
	StudentID *uint
	QuizID    *uint
}

// Answer is one submitted answer. OptionID nil means the question was skipped.
type Answer struct {
	QuestionID uint  `json:"question_id" validate:"required"`
	OptionID   *uint `json:"option_id"`
}

// Repository handles quiz persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new quizzes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func withQuestions(db *gorm.DB) *gorm.DB {
	return db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (r *Repository) ListQuizzes(f Filter) ([]entities.Quiz, error) {
	query := r.db.Order("created_at DESC, id DESC")
	if f.BatchID != nil {
		query = query.Where("batch_id = ?", *f.BatchID)
	}
	if f.SyllabusID != nil {
		query = query.Where("syllabus_id = ?", *f.SyllabusID)
	}
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []entities.Quiz
	err := query.Find(&list).Error
	return list, err
}

// ListForStudent returns the active quizzes of batches whose course the
// student is actively enrolled in.
func (r *Repository) ListForStudent(studentID uint) ([]entities.Quiz, error) {
	courses := r.db.Model(&entities.Enrollment{}).Select("course_id").
		Where("user_id = ? AND is_active = ?", studentID, true)
	batches := r.db.Model(&entities.Batch{}).Select("id").Where("course_id IN (?)", courses)

	var list []entities.Quiz
	err := r.db.Where("is_active = ? AND batch_id IN (?)", true, batches).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// GetQuiz loads a quiz, with its questions and options when full is set.
func (r *Repository) GetQuiz(id uint, full bool) (*entities.Quiz, error) {
	query := r.db.Preload("Batch")
	if full {
		query = withQuestions(query)
	}
	var quiz entities.Quiz
	if err := query.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// CreateQuiz inserts a quiz with any nested questions and options and sets
// total_marks from them.
func (r *Repository) CreateQuiz(quiz *entities.Quiz) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entities.Batch{}, quiz.BatchID).Error; err != nil {
			return err
		}
		for i := range quiz.Questions {
			if quiz.Questions[i].Mark == 0 {
				quiz.Questions[i].Mark = 1
			}
		}
		if err := tx.Omit("Batch").Create(quiz).Error; err != nil {
			return err
		}
		total, err := recomputeTotal(tx, quiz.ID)
		quiz.TotalMarks = total
		return err
	})
}

// UpdateQuiz saves the quiz columns; questions are managed separately.
func (r *Repository) UpdateQuiz(quiz *entities.Quiz) error {
	return r.db.Omit("Batch", "Questions", "TotalMarks").Save(quiz).Error
}

// DeleteQuiz removes a quiz with its questions, options and attempts.
func (r *Repository) DeleteQuiz(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		attempts := tx.Model(&entities.QuizAttempt{}).Select("id").Where("quiz_id = ?", id)
		questions := tx.Model(&entities.QuizQuestion{}).Select("id").Where("quiz_id = ?", id)
		if err := tx.Where("attempt_id IN (?)", attempts).Delete(&entities.QuizAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&entities.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questions).Delete(&entities.QuizOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&entities.QuizQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Quiz{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func recomputeTotal(tx *gorm.DB, quizID uint) (int, error) {
	var total int
	err := tx.Model(&entities.QuizQuestion{}).
		Select("COALESCE(SUM(mark), 0)").
		Where("quiz_id = ?", quizID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, tx.Model(&entities.Quiz{}).Where("id = ?", quizID).Update("total_marks", total).Error
}

// Questions

func (r *Repository) GetQuestion(id uint) (*entities.QuizQuestion, error) {
	var q entities.QuizQuestion
	err := r.db.Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// AddQuestion appends a question (with nested options) and refreshes total_marks.
func (r *Repository) AddQuestion(question *entities.QuizQuestion) error {
	if question.Mark == 0 {
		question.Mark = 1
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entities.Quiz{}, question.QuizID).Error; err != nil {
			return err
		}
		if err := tx.Create(question).Error; err != nil {
			return err
		}
		_, err := recomputeTotal(tx, question.QuizID)
		return err
	})
}

func (r *Repository) UpdateQuestion(question *entities.QuizQuestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Save(question).Error; err != nil {
			return err
		}
		_, err := recomputeTotal(tx, question.QuizID)
		return err
	})
}

func (r *Repository) DeleteQuestion(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var q entities.QuizQuestion
		if err := tx.First(&q, id).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&entities.QuizAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&entities.QuizOption{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&q).Error; err != nil {
			return err
		}
		_, err := recomputeTotal(tx, q.QuizID)
		return err
	})
}

// Options

func (r *Repository) GetOption(id uint) (*entities.QuizOption, error) {
	var o entities.QuizOption
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) AddOption(option *entities.QuizOption) error {
	if err := r.db.First(&entities.QuizQuestion{}, option.QuestionID).Error; err != nil {
		return err
	}
	return r.db.Create(option).Error
}

func (r *Repository) UpdateOption(option *entities.QuizOption) error {
	return r.db.Save(option).Error
}

func (r *Repository) DeleteOption(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.QuizAnswer{}).Where("selected_option_id = ?", id).
			Update("selected_option_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.QuizOption{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Attempts

// SubmitAttempt scores a student's answers and stores the attempt. The score
// is the sum of marks of correctly answered questions.
func (r *Repository) SubmitAttempt(studentID, quizID uint, answers []Answer) (*entities.QuizAttempt, error) {
	quiz, err := r.GetQuiz(quizID, true)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}
	if quiz.Batch == nil {
		return nil, fmt.Errorf("quiz %d has no batch", quiz.ID)
	}

	var enrolled int64
	if err := r.db.Model(&entities.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_active = ?", studentID, quiz.Batch.CourseID, true).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	if enrolled == 0 {
		return nil, ErrNotEnrolled
	}

	questions := make(map[uint]*entities.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	attempt := &entities.QuizAttempt{StudentID: studentID, QuizID: quizID}
	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		question, ok := questions[a.QuestionID]
		if !ok {
			return nil, ErrUnknownQuestion
		}
		if seen[a.QuestionID] {
			return nil, ErrDuplicateAnswer
		}
		seen[a.QuestionID] = true

		answer := entities.QuizAnswer{QuestionID: a.QuestionID, SelectedOptionID: a.OptionID}
		if a.OptionID != nil {
			option := findOption(question, *a.OptionID)
			if option == nil {
				return nil, ErrUnknownOption
			}
			answer.IsCorrect = option.IsCorrect
		}
		if answer.IsCorrect {
			attempt.Score += question.Mark
		}
		attempt.Answers = append(attempt.Answers, answer)
	}

	if err := r.db.Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func findOption(q *entities.QuizQuestion, id uint) *entities.QuizOption {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

func (r *Repository) ListAttempts(f AttemptFilter) ([]entities.QuizAttempt, error) {
	query := r.db.Preload("Answers").Order("attempted_on DESC, id DESC")
	if f.StudentID != nil {
		query = query.Where("student_id = ?", *f.StudentID)
	}
	if f.QuizID != nil {
		query = query.Where("quiz_id = ?", *f.QuizID)
	}
	var list []entities.QuizAttempt
	err := query.Find(&list).Error
	return list, err
}
