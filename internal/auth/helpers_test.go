package auth

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// captureMailer records links instead of sending them.
type captureMailer struct {
	mu     sync.Mutex
	verify []string
	reset  []string
}

func (m *captureMailer) SendVerification(_ context.Context, _ *entities.User, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verify = append(m.verify, link)
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _ *entities.User, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = append(m.reset, link)
	return nil
}

func (m *captureMailer) SendNotification(_ context.Context, _ *entities.User, _ string) error {
	return nil
}

func (m *captureMailer) lastVerifyToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.verify, "no verification email sent")
	return tokenFromLink(t, m.verify[len(m.verify)-1])
}

func (m *captureMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.reset, "no reset email sent")
	return tokenFromLink(t, m.reset[len(m.reset)-1])
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:      time.Hour,
		TokenExpiry:          24 * time.Hour,
		BcryptCost:           4, // bcrypt.MinCost keeps tests fast
		MaxLoginAttempts:     3,
		RateLimitWindow:      time.Minute,
		LockoutDuration:      10 * time.Minute,
		VerificationTokenTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
		PublicURL:            "http://lms.test",
	}
}

func setupService(t *testing.T) (*Service, *gorm.DB, *captureMailer) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mailer := &captureMailer{}
	return NewService(db.DB, testAuthConfig(), mailer), db.DB, mailer
}

func createActiveUser(t *testing.T, svc *Service, email string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := svc.CreateUser(email, "Test User", "password123", role)
	require.NoError(t, err)
	return user
}
