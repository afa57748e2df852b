package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyEmail    = "auth_email"
	ContextKeyRole     = "auth_role"
	ContextKeyVerified = "auth_email_verified"
	ContextKeyAuthType = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// AnonymousUserID is stored for requests without credentials.
const AnonymousUserID = uint(0)

// publicRoute matches requests that may proceed without credentials. An empty
// method matches every method; prefix routes match the path and its children.
type publicRoute struct {
	method string
	path   string
	prefix bool
}

// defaultPublicRoutes are reachable anonymously.
var defaultPublicRoutes = []publicRoute{
	{path: "/health"},
	{path: "/ping"},
	{method: http.MethodPost, path: "/api/auth/register"},
	{method: http.MethodPost, path: "/api/auth/login"},
	{path: "/api/auth/verify-email"},
	{method: http.MethodPost, path: "/api/auth/resend-verification"},
	{method: http.MethodPost, path: "/api/auth/password-reset", prefix: true},
	{method: http.MethodGet, path: "/api/auth/csrf"},
	{method: http.MethodGet, path: "/api/categories", prefix: true},
	{method: http.MethodGet, path: "/api/courses", prefix: true},
	{method: http.MethodGet, path: "/api/reviews", prefix: true},
	{method: http.MethodGet, path: "/api/faqs", prefix: true},
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	public         []publicRoute
}

// NewMiddleware creates a new authentication middleware. sessionManager may be
// nil, in which case only bearer tokens are accepted.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		public:         defaultPublicRoutes,
	}
}

// Handler authenticates the request with a bearer token or session cookie.
// Public routes still resolve credentials when present, so handlers can vary
// their response by role.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := m.tryBearerAuth(c); user != nil {
			setUserContext(c, user, AuthTypeBearer)
			c.Next()
			return
		}
		if user := m.trySessionAuth(c); user != nil {
			setUserContext(c, user, AuthTypeSession)
			c.Next()
			return
		}

		if m.isPublic(c.Request.Method, c.Request.URL.Path) {
			c.Set(ContextKeyUserID, AnonymousUserID)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication credentials were not provided.",
		})
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	token, ok := bearerToken(c)
	if !ok {
		return nil
	}
	user, err := m.service.ValidateToken(token)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(userID)
	if err != nil || !user.IsActive {
		return nil
	}
	return user
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyEmail, user.Email)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyVerified, user.IsEmailVerified)
	c.Set(ContextKeyAuthType, authType)
}

func (m *Middleware) isPublic(method, path string) bool {
	for _, r := range m.public {
		if r.method != "" && r.method != method {
			continue
		}
		if path == r.path || (r.prefix && strings.HasPrefix(path, r.path+"/")) {
			return true
		}
	}
	return false
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects anonymous requests. Use on routes nested under public
// prefixes that still need a user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == AnonymousUserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}
		c.Next()
	}
}

// RequireRole rejects users whose role is not listed.
func RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	allowed := make(map[entities.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if GetUserID(c) == AnonymousUserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}
		if !allowed[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "You do not have permission to perform this action.",
			})
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID, or AnonymousUserID.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return AnonymousUserID
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if the request carries a user.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != AnonymousUserID
}
