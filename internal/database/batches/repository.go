// Package batches provides database operations for batches, their students
// and their assigned staff.
//
// # Usage
//
//	repo := batches.NewRepository(db)
//	list, err := repo.ListBatches(batches.Filter{Archived: false}, viewer)
package batches

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var (
	ErrActiveMembers     = errors.New("batch still has active members")
	ErrStudentSuspended  = errors.New("student is suspended")
	ErrNotStudent        = errors.New("user is not a student")
	ErrNotStaff          = errors.New("user is not a staff member")
	ErrAlreadyInBatch    = errors.New("student is already in this batch")
	ErrStudentNotInBatch = errors.New("student is not part of this batch")
	ErrStaffNotAssigned  = errors.New("staff member is not assigned to this batch")
)

// Viewer is the caller a role-scoped listing is computed for.
type Viewer struct {
	UserID uint
	Role   entities.UserRole
}

// Filter narrows ListBatches.
type Filter struct {
	Archived bool
	CourseID *uint
}

// Repository handles batch persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new batches repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// scope restricts a batches query to what the viewer may see: admins see
// everything, staff see batches they are assigned to or manage, students see
// batches they belong to.
func (r *Repository) scope(query *gorm.DB, v Viewer) *gorm.DB {
	switch v.Role {
	case entities.UserRoleAdmin:
		return query
	case entities.UserRoleStaff:
		assigned := r.db.Model(&entities.BatchStaff{}).Select("batch_id").Where("staff_id = ?", v.UserID)
		return query.Where(
			"batches.id IN (?) OR manager_id = ? OR assistant_manager_id = ? OR course_coordinator_id = ? OR support_contact_id = ?",
			assigned, v.UserID, v.UserID, v.UserID, v.UserID,
		)
	default:
		joined := r.db.Model(&entities.BatchStudent{}).Select("batch_id").Where("student_id = ?", v.UserID)
		return query.Where("batches.id IN (?)", joined)
	}
}

// ListBatches returns the batches visible to the viewer with their student counts.
func (r *Repository) ListBatches(f Filter, v Viewer) ([]entities.Batch, error) {
	query := r.db.Model(&entities.Batch{}).Where("is_archived = ?", f.Archived)
	if f.CourseID != nil {
		query = query.Where("course_id = ?", *f.CourseID)
	}
	query = r.scope(query, v)

	var list []entities.Batch
	if err := query.Preload("Course").Order("start_date DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	if err := r.fillStudentCounts(list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) fillStudentCounts(list []entities.Batch) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	var counts []struct {
		BatchID uint
		Total   int64
	}
	err := r.db.Model(&entities.BatchStudent{}).
		Select("batch_id, COUNT(*) AS total").
		Where("batch_id IN ?", ids).
		Group("batch_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}
	byBatch := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byBatch[c.BatchID] = c.Total
	}
	for i := range list {
		list[i].StudentCount = byBatch[list[i].ID]
	}
	return nil
}

func (r *Repository) GetBatch(id uint) (*entities.Batch, error) {
	var batch entities.Batch
	if err := r.db.Preload("Course").First(&batch, id).Error; err != nil {
		return nil, err
	}
	err := r.db.Model(&entities.BatchStudent{}).Where("batch_id = ?", id).Count(&batch.StudentCount).Error
	return &batch, err
}

func (r *Repository) CreateBatch(batch *entities.Batch) error {
	return r.db.Omit("Course").Create(batch).Error
}

func (r *Repository) UpdateBatch(batch *entities.Batch) error {
	return r.db.Omit("Course").Save(batch).Error
}

// DeleteBatch removes a batch with its memberships, sessions, quizzes and chats.
func (r *Repository) DeleteBatch(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		quizIDs := tx.Model(&entities.Quiz{}).Select("id").Where("batch_id = ?", id)
		questionIDs := tx.Model(&entities.QuizQuestion{}).Select("id").Where("quiz_id IN (?)", quizIDs)
		attemptIDs := tx.Model(&entities.QuizAttempt{}).Select("id").Where("quiz_id IN (?)", quizIDs)

		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&entities.QuizAnswer{}, "attempt_id IN (?)", attemptIDs},
			{&entities.QuizAttempt{}, "quiz_id IN (?)", quizIDs},
			{&entities.QuizOption{}, "question_id IN (?)", questionIDs},
			{&entities.QuizQuestion{}, "quiz_id IN (?)", quizIDs},
			{&entities.Quiz{}, "batch_id = ?", id},
			{&entities.LiveSession{}, "batch_id = ?", id},
			{&entities.ChatMessage{}, "batch_id = ?", id},
			{&entities.BatchStudent{}, "batch_id = ?", id},
			{&entities.BatchStaff{}, "batch_id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&entities.Batch{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Archive marks the batch archived. It is refused while unsuspended students
// or any staff are still assigned.
func (r *Repository) Archive(id uint) (*entities.Batch, error) {
	if _, err := r.GetBatch(id); err != nil {
		return nil, err
	}

	var students, staff int64
	if err := r.db.Model(&entities.BatchStudent{}).
		Where("batch_id = ? AND is_suspended = ?", id, false).
		Count(&students).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.BatchStaff{}).Where("batch_id = ?", id).Count(&staff).Error; err != nil {
		return nil, err
	}
	if students > 0 || staff > 0 {
		return nil, ErrActiveMembers
	}

	if err := r.db.Model(&entities.Batch{}).Where("id = ?", id).Update("is_archived", true).Error; err != nil {
		return nil, err
	}
	return r.GetBatch(id)
}

func (r *Repository) Unarchive(id uint) (*entities.Batch, error) {
	result := r.db.Model(&entities.Batch{}).Where("id = ?", id).Update("is_archived", false)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetBatch(id)
}

// Membership

// IsStudent reports whether the user is a (possibly suspended) student of the batch.
func (r *Repository) IsStudent(batchID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.BatchStudent{}).
		Where("batch_id = ? AND student_id = ?", batchID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsStaff reports whether the user is assigned to or manages the batch.
func (r *Repository) IsStaff(batchID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.BatchStaff{}).
		Where("batch_id = ? AND staff_id = ?", batchID, userID).
		Count(&count).Error
	if err != nil || count > 0 {
		return count > 0, err
	}
	batch, err := r.GetBatch(batchID)
	if err != nil {
		return false, err
	}
	return batch.ManagedBy(userID), nil
}

// IsParticipant reports whether the user is a student or staff member of the batch.
func (r *Repository) IsParticipant(batchID, userID uint) (bool, error) {
	ok, err := r.IsStudent(batchID, userID)
	if err != nil || ok {
		return ok, err
	}
	return r.IsStaff(batchID, userID)
}

// BatchIDsForStudent returns the batches the student belongs to, optionally
// restricted to one course.
func (r *Repository) BatchIDsForStudent(userID uint, courseID *uint) ([]uint, error) {
	query := r.db.Model(&entities.BatchStudent{}).
		Joins("JOIN batches ON batches.id = batch_students.batch_id").
		Where("batch_students.student_id = ?", userID)
	if courseID != nil {
		query = query.Where("batches.course_id = ?", *courseID)
	}
	var ids []uint
	err := query.Pluck("batch_students.batch_id", &ids).Error
	return ids, err
}

// Students

// AddStudent adds a student to the batch and enrolls them in the batch course
// when they are not enrolled yet.
func (r *Repository) AddStudent(batchID, studentID uint) (*entities.BatchStudent, error) {
	var membership *entities.BatchStudent
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		membership, err = addStudent(tx, batchID, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func addStudent(tx *gorm.DB, batchID, studentID uint) (*entities.BatchStudent, error) {
	var batch entities.Batch
	if err := tx.First(&batch, batchID).Error; err != nil {
		return nil, err
	}
	var student entities.User
	if err := tx.First(&student, studentID).Error; err != nil {
		return nil, err
	}
	if student.Role != entities.UserRoleStudent {
		return nil, ErrNotStudent
	}

	var existing int64
	if err := tx.Model(&entities.BatchStudent{}).
		Where("batch_id = ? AND student_id = ?", batchID, studentID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyInBatch
	}

	membership := &entities.BatchStudent{BatchID: batchID, StudentID: studentID}
	if err := tx.Omit("Batch", "Student").Create(membership).Error; err != nil {
		return nil, err
	}

	var enrollment entities.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", studentID, batch.CourseID).First(&enrollment).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = tx.Omit("Course").Create(&entities.Enrollment{
			UserID: studentID, CourseID: batch.CourseID, IsActive: true,
		}).Error
	case err == nil && !enrollment.IsActive:
		err = tx.Model(&enrollment).Update("is_active", true).Error
	}
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (r *Repository) getMembership(batchID, studentID uint) (*entities.BatchStudent, error) {
	var membership entities.BatchStudent
	err := r.db.Preload("Student").
		Where("batch_id = ? AND student_id = ?", batchID, studentID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotInBatch
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListStudents returns the students of a batch ordered by join time.
func (r *Repository) ListStudents(batchID uint) ([]entities.BatchStudent, error) {
	var list []entities.BatchStudent
	err := r.db.Preload("Student").
		Where("batch_id = ?", batchID).
		Order("joined_at, id").
		Find(&list).Error
	return list, err
}

// ListStudentIDs returns the ids of a batch's students, skipping suspended ones
// unless includeSuspended is set.
func (r *Repository) ListStudentIDs(batchID uint, includeSuspended bool) ([]uint, error) {
	query := r.db.Model(&entities.BatchStudent{}).Where("batch_id = ?", batchID)
	if !includeSuspended {
		query = query.Where("is_suspended = ?", false)
	}
	var ids []uint
	err := query.Order("student_id").Pluck("student_id", &ids).Error
	return ids, err
}

// MoveStudent transfers an unsuspended student to another batch.
func (r *Repository) MoveStudent(batchID, studentID, targetBatchID uint) (*entities.BatchStudent, error) {
	membership, err := r.getMembership(batchID, studentID)
	if err != nil {
		return nil, err
	}
	if membership.IsSuspended {
		return nil, ErrStudentSuspended
	}

	var moved *entities.BatchStudent
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entities.BatchStudent{}, membership.ID).Error; err != nil {
			return err
		}
		moved, err = addStudent(tx, targetBatchID, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// RemoveStudent deletes an unsuspended student's membership.
func (r *Repository) RemoveStudent(batchID, studentID uint) error {
	membership, err := r.getMembership(batchID, studentID)
	if err != nil {
		return err
	}
	if membership.IsSuspended {
		return ErrStudentSuspended
	}
	return r.db.Delete(&entities.BatchStudent{}, membership.ID).Error
}

// SetSuspended suspends or reinstates a student of the batch.
func (r *Repository) SetSuspended(batchID, studentID uint, suspended bool) (*entities.BatchStudent, error) {
	membership, err := r.getMembership(batchID, studentID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(membership).Update("is_suspended", suspended).Error; err != nil {
		return nil, err
	}
	membership.IsSuspended = suspended
	return membership, nil
}

// ListSuspended returns suspended memberships in the batches the viewer can see.
func (r *Repository) ListSuspended(v Viewer) ([]entities.BatchStudent, error) {
	visible := r.scope(r.db.Model(&entities.Batch{}).Select("batches.id"), v)

	var list []entities.BatchStudent
	err := r.db.Preload("Student").Preload("Batch").
		Where("is_suspended = ? AND batch_id IN (?)", true, visible).
		Order("batch_id, student_id").
		Find(&list).Error
	return list, err
}

// Staff

// AssignStaff adds each user to the batch staff. Every id must belong to a
// staff member; already assigned ones are skipped.
func (r *Repository) AssignStaff(batchID uint, staffIDs []uint) ([]entities.BatchStaff, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entities.Batch{}, batchID).Error; err != nil {
			return err
		}
		for _, staffID := range staffIDs {
			var user entities.User
			if err := tx.First(&user, staffID).Error; err != nil {
				return err
			}
			if user.Role != entities.UserRoleStaff {
				return ErrNotStaff
			}
			var count int64
			if err := tx.Model(&entities.BatchStaff{}).
				Where("batch_id = ? AND staff_id = ?", batchID, staffID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Omit("Staff").Create(&entities.BatchStaff{BatchID: batchID, StaffID: staffID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.ListStaff(batchID)
}

// RemoveStaff unassigns the given staff members.
func (r *Repository) RemoveStaff(batchID uint, staffIDs []uint) error {
	result := r.db.Where("batch_id = ? AND staff_id IN ?", batchID, staffIDs).Delete(&entities.BatchStaff{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaffNotAssigned
	}
	return nil
}

func (r *Repository) ListStaff(batchID uint) ([]entities.BatchStaff, error) {
	var list []entities.BatchStaff
	err := r.db.Preload("Staff").Where("batch_id = ?", batchID).Order("assigned_at, id").Find(&list).Error
	return list, err
}
