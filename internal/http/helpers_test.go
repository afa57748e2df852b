package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/database/assignments"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/quizzes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestParseIDParam_ZeroAndNegative(t *testing.T) {
	for _, value := range []string{"0", "-1"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: value}}

		_, ok := parseIDParam(c, "id")

		assert.False(t, ok, value)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestParseQueryID_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?course_id=456", nil)

	id, ok := parseQueryID(c, "course_id")

	assert.True(t, ok)
	assert.Equal(t, uint(456), id)
}

func TestParseQueryID_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	id, ok := parseQueryID(c, "course_id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "course_id is required")
}

func TestOptionalQueryID(t *testing.T) {
	t.Run("missing is nil", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)

		id, ok := optionalQueryID(c, "batch_id")

		assert.True(t, ok)
		assert.Nil(t, id)
	})

	t.Run("malformed responds 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/?batch_id=x", nil)

		_, ok := optionalQueryID(c, "batch_id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedLimit  int
		expectedOffset int
	}{
		{"defaults", "", 25, 0},
		{"explicit", "?limit=10&offset=20", 10, 20},
		{"limit above max", "?limit=1000", 25, 0},
		{"negative offset", "?offset=-5", 25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			limit, offset := pagination(c, 25, 100)

			assert.Equal(t, tt.expectedLimit, limit)
			assert.Equal(t, tt.expectedOffset, offset)
		})
	}
}

func TestRespondPage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondPage(c, []int{1, 2}, 5, 2, 0)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_more":true`)
	assert.Contains(t, w.Body.String(), `"total_pages":3`)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, "thing not found"},
		{"wrapped not found", errors.Join(errors.New("lookup"), gorm.ErrRecordNotFound), http.StatusNotFound, ""},
		{"already submitted", assignments.ErrAlreadySubmitted, http.StatusConflict, "You have already submitted this assignment"},
		{"not enrolled", quizzes.ErrNotEnrolled, http.StatusForbidden, msgNotEnrolled},
		{"wrapped not enrolled", fmt.Errorf("submit: %w", assignments.ErrNotEnrolled), http.StatusForbidden, msgNotEnrolled},
		{"student suspended", batches.ErrStudentSuspended, http.StatusBadRequest, "Cannot modify a suspended student"},
		{"archive with members", batches.ErrActiveMembers, http.StatusBadRequest,
			"Cannot archive: Active students or staff are still assigned to this batch."},
		{"unmapped rule keeps its text", batches.ErrNotStudent, http.StatusBadRequest, "user is not a student"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondDomainError(c, tt.err, "thing")

			assert.Equal(t, tt.expected, w.Code)
			if tt.message != "" {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.message, body.Error)
			}
		})
	}
}

func TestRespondForbidden_DefaultMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondForbidden(c, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), msgForbidden)
	assert.Contains(t, w.Body.String(), `"code":"permission_denied"`)
}
