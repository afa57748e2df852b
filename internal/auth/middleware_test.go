package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/entities"
)

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   GetUserID(c),
		"role":      GetUserRole(c),
		"auth_type": GetAuthType(c),
	})
}

func setupMiddlewareRouter(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *Service) {
	t.Helper()
	svc, _, _ := setupService(t)

	router := gin.New()
	router.Use(NewMiddleware(svc, nil).Handler())
	handlers := append(extra, whoami)
	router.GET("/health", handlers...)
	router.GET("/api/courses", handlers...)
	router.GET("/api/courses/:id", handlers...)
	router.POST("/api/courses", handlers...)
	router.GET("/api/coursesx", handlers...)
	router.GET("/api/batches", handlers...)
	router.POST("/api/batches", handlers...)
	return router, svc
}

func do(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_PublicRoutes(t *testing.T) {
	router, _ := setupMiddlewareRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/courses", http.StatusOK},
		{http.MethodGet, "/api/courses/12", http.StatusOK},
		{http.MethodPost, "/api/courses", http.StatusUnauthorized},
		{http.MethodGet, "/api/coursesx", http.StatusUnauthorized},
		{http.MethodGet, "/api/batches", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := do(router, tt.method, tt.path, "")
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestMiddleware_AnonymousContext(t *testing.T) {
	router, _ := setupMiddlewareRouter(t)

	rr := do(router, http.MethodGet, "/api/courses", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body["user_id"])
	assert.Equal(t, string(AuthTypeNone), body["auth_type"])
}

func TestMiddleware_BearerToken(t *testing.T) {
	router, svc := setupMiddlewareRouter(t)
	user := createActiveUser(t, svc, "bearer@example.com", entities.UserRoleStaff)
	token, err := svc.GenerateToken(user.ID)
	require.NoError(t, err)

	rr := do(router, http.MethodGet, "/api/batches", token)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, user.ID, body["user_id"])
	assert.Equal(t, "staff", body["role"])
	assert.Equal(t, string(AuthTypeBearer), body["auth_type"])

	// Public routes still resolve the caller.
	rr = do(router, http.MethodGet, "/api/courses", token)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, user.ID, body["user_id"])

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/batches", "not-a-token").Code)
}

func TestMiddleware_InactiveUserRejected(t *testing.T) {
	router, svc := setupMiddlewareRouter(t)
	user := createActiveUser(t, svc, "inactive@example.com", entities.UserRoleStudent)
	token, err := svc.GenerateToken(user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.db.Model(user).Update("is_active", false).Error)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/batches", token).Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tt.header)
		got, ok := bearerToken(c)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequireRole(t *testing.T) {
	router, svc := setupMiddlewareRouter(t, RequireRole(entities.UserRoleAdmin))
	student := createActiveUser(t, svc, "student@example.com", entities.UserRoleStudent)
	admin := createActiveUser(t, svc, "admin@example.com", entities.UserRoleAdmin)
	studentToken, err := svc.GenerateToken(student.ID)
	require.NoError(t, err)
	adminToken, err := svc.GenerateToken(admin.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/courses", "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/api/batches", studentToken).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/batches", adminToken).Code)
}

func TestStaffOrReadOnly(t *testing.T) {
	router, svc := setupMiddlewareRouter(t, StaffOrReadOnly())
	student := createActiveUser(t, svc, "student@example.com", entities.UserRoleStudent)
	staff := createActiveUser(t, svc, "staff@example.com", entities.UserRoleStaff)
	studentToken, _ := svc.GenerateToken(student.ID)
	staffToken, _ := svc.GenerateToken(staff.ID)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/batches", studentToken).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/batches", studentToken).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/batches", staffToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/courses", "").Code)
}

func TestStaffWritesOnly(t *testing.T) {
	router, svc := setupMiddlewareRouter(t, StaffWritesOnly())
	student := createActiveUser(t, svc, "student@example.com", entities.UserRoleStudent)
	admin := createActiveUser(t, svc, "admin@example.com", entities.UserRoleAdmin)
	studentToken, _ := svc.GenerateToken(student.ID)
	adminToken, _ := svc.GenerateToken(admin.ID)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/courses", "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/courses", studentToken).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/courses", adminToken).Code)
}

func TestRequireAuth(t *testing.T) {
	router, svc := setupMiddlewareRouter(t, RequireAuth())
	user := createActiveUser(t, svc, "reader@example.com", entities.UserRoleStudent)
	token, _ := svc.GenerateToken(user.ID)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/courses", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/courses", token).Code)
}
