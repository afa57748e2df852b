package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/database/dberr"
	"github.com/mrlokans/lms/internal/database/users"
	"github.com/mrlokans/lms/internal/entities"
)

// Access answers the membership questions shared by several controllers.
type Access struct {
	users   *users.Repository
	courses *courses.Repository
	batches *batches.Repository
}

func NewAccess(u *users.Repository, c *courses.Repository, b *batches.Repository) *Access {
	return &Access{users: u, courses: c, batches: b}
}

// viewer returns the caller for role-scoped listings.
func viewer(c *gin.Context) batches.Viewer {
	return batches.Viewer{UserID: auth.GetUserID(c), Role: auth.GetUserRole(c)}
}

// CanViewCourse reports whether the caller may read the course's content.
// Staff and admins always can; everyone else must hold an active enrollment.
func (a *Access) CanViewCourse(c *gin.Context, courseID uint) (bool, error) {
	if auth.IsStaffOrAdmin(c) {
		return true, nil
	}
	enrollment, err := a.courses.GetEnrollmentFor(auth.GetUserID(c), courseID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return enrollment.IsActive, nil
}

// EnrolledCourseIDs lists the courses the caller is actively enrolled in.
func (a *Access) EnrolledCourseIDs(c *gin.Context) ([]uint, error) {
	userID := auth.GetUserID(c)
	list, err := a.courses.ListEnrollments(courses.EnrollmentFilter{UserID: &userID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.CourseID)
	}
	return ids, nil
}

// InBatch reports whether the caller participates in the batch. Admins are
// participants of every batch.
func (a *Access) InBatch(c *gin.Context, batchID uint) (bool, error) {
	userID := auth.GetUserID(c)
	switch auth.GetUserRole(c) {
	case entities.UserRoleAdmin:
		if _, err := a.batches.GetBatch(batchID); err != nil {
			return false, err
		}
		return true, nil
	case entities.UserRoleStaff:
		return a.batches.IsStaff(batchID, userID)
	default:
		return a.batches.IsStudent(batchID, userID)
	}
}

// StaffFlag selects one StaffProfile management permission.
type StaffFlag func(*entities.StaffProfile) bool

var (
	courseManagement       StaffFlag = func(p *entities.StaffProfile) bool { return p.HasCourseManagementAccess }
	batchManagement        StaffFlag = func(p *entities.StaffProfile) bool { return p.HasBatchManagementAccess }
	announcementManagement StaffFlag = func(p *entities.StaffProfile) bool { return p.HasAnnouncementManagementAccess }
)

// HasStaffAccess reports whether the caller is an admin, or a staff member
// whose profile grants flag.
func (a *Access) HasStaffAccess(c *gin.Context, flag StaffFlag) (bool, error) {
	if auth.IsAdmin(c) {
		return true, nil
	}
	if !auth.IsStaff(c) {
		return false, nil
	}
	profile, err := a.users.GetStaffProfile(auth.GetUserID(c))
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return flag(profile), nil
}

// ownerOrStaff resolves the user a "mine or, for staff, anyone's" listing is
// for. Students asking for another user get false.
func ownerOrStaff(c *gin.Context) (uint, bool) {
	userID := auth.GetUserID(c)
	requested, ok := optionalQueryID(c, "user_id")
	if !ok {
		return 0, false
	}
	if requested == nil || *requested == userID {
		return userID, true
	}
	if !auth.IsStaffOrAdmin(c) {
		respondForbidden(c, "")
		return 0, false
	}
	return *requested, true
}

// requireStaffAccess responds 403 unless HasStaffAccess grants flag.
func (a *Access) requireStaffAccess(c *gin.Context, flag StaffFlag) bool {
	allowed, err := a.HasStaffAccess(c, flag)
	if err != nil {
		respondInternalError(c, err, "staff access")
		return false
	}
	if !allowed {
		respondForbidden(c, "")
		return false
	}
	return true
}

// requireInBatch responds 403 unless the caller participates in the batch.
func (a *Access) requireInBatch(c *gin.Context, batchID uint) bool {
	inBatch, err := a.InBatch(c, batchID)
	if err != nil {
		respondDomainError(c, err, "batch")
		return false
	}
	if !inBatch {
		respondForbidden(c, msgNotInBatch)
		return false
	}
	return true
}
