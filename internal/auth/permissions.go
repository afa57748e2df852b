package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/entities"
)

// Role predicates over the authenticated request.

func IsStudent(c *gin.Context) bool {
	return IsAuthenticated(c) && GetUserRole(c) == entities.UserRoleStudent
}

func IsStaff(c *gin.Context) bool {
	return IsAuthenticated(c) && GetUserRole(c) == entities.UserRoleStaff
}

func IsAdmin(c *gin.Context) bool {
	return IsAuthenticated(c) && GetUserRole(c) == entities.UserRoleAdmin
}

func IsStaffOrAdmin(c *gin.Context) bool {
	return IsAuthenticated(c) && GetUserRole(c).IsStaffOrAdmin()
}

// IsEmailVerified reports whether the authenticated user confirmed their email.
func IsEmailVerified(c *gin.Context) bool {
	v, _ := c.Get(ContextKeyVerified)
	verified, _ := v.(bool)
	return IsAuthenticated(c) && verified
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// StaffOrReadOnly lets any authenticated user read and restricts writes to
// staff and admins.
func StaffOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}
		if !isSafeMethod(c.Request.Method) && !IsStaffOrAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "You do not have permission to perform this action.",
			})
			return
		}
		c.Next()
	}
}

// StaffWritesOnly leaves reads to the route's own auth rules and restricts
// writes to staff and admins. Used under public catalog prefixes.
func StaffWritesOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}
		if !IsStaffOrAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "You do not have permission to perform this action.",
			})
			return
		}
		c.Next()
	}
}
