package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// Service handles registration, credential checks and one-time tokens.
type Service struct {
	db     *gorm.DB
	config config.Auth
	mailer Mailer
	now    func() time.Time
}

// NewService creates a new authentication service. A nil mailer logs emails.
func NewService(db *gorm.DB, cfg config.Auth, mailer Mailer) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		db:     db,
		config: cfg,
		mailer: mailer,
		now:    time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// Register creates an inactive student and mails a verification link. The
// account becomes usable once VerifyEmail succeeds.
func (s *Service) Register(ctx context.Context, email, fullName, password, confirm string) (*entities.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateNewPassword(password, confirm); err != nil {
		return nil, err
	}

	user, err := s.newUser(email, fullName, password, entities.UserRoleStudent)
	if err != nil {
		return nil, err
	}

	var token string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		token, err = s.issueToken(tx, user.ID, entities.TokenPurposeVerifyEmail, s.config.VerificationTokenTTL)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, user, entities.TokenPurposeVerifyEmail, token)
	return user, nil
}

// CreateUser creates an active, verified account. Used to bootstrap admins.
func (s *Service) CreateUser(email, fullName, password string, role entities.UserRole) (*entities.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.newUser(email, fullName, password, role)
	if err != nil {
		return nil, err
	}
	user.IsActive = true
	user.IsEmailVerified = true

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) newUser(email, fullName, password string, role entities.UserRole) (*entities.User, error) {
	var count int64
	if err := s.db.Model(&entities.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &entities.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// Authenticate validates credentials and returns the user. Repeated failures
// lock the account for LockoutDuration.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("LOWER(email) = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user, now)
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	err = s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
	if err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record login")
	}
	user.LastLoginAt = &now

	return &user, nil
}

// recordFailedLogin counts a failure and locks the account once the limit is
// reached. An expired lock starts a fresh count.
func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	updates := map[string]any{}
	if user.LockedUntil != nil {
		user.FailedLoginCount = 0
		user.LockedUntil = nil
		updates["locked_until"] = nil
	}
	user.FailedLoginCount++
	updates["failed_login_count"] = user.FailedLoginCount

	limit := s.config.MaxLoginAttempts
	if limit <= 0 {
		limit = 5
	}
	if user.FailedLoginCount >= limit {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		until := now.Add(lockout)
		user.LockedUntil = &until
		updates["locked_until"] = until
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record failed login")
	}
}

// VerifyEmail consumes a verification token and activates the account.
func (s *Service) VerifyEmail(token string) (*entities.User, error) {
	var user entities.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.consumeToken(tx, token, entities.TokenPurposeVerifyEmail)
		if err != nil {
			return err
		}
		err = tx.Model(&entities.User{}).Where("id = ?", t.UserID).Updates(map[string]any{
			"is_email_verified": true,
			"is_active":         true,
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&user, t.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResendVerification mails a fresh verification link. Unknown or already
// verified addresses are ignored so callers cannot probe for accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(email)
	if err != nil || user == nil || user.IsEmailVerified {
		return err
	}
	token, err := s.issueToken(s.db, user.ID, entities.TokenPurposeVerifyEmail, s.config.VerificationTokenTTL)
	if err != nil {
		return err
	}
	s.send(ctx, user, entities.TokenPurposeVerifyEmail, token)
	return nil
}

// RequestPasswordReset mails a reset link when the address is known.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(email)
	if err != nil || user == nil {
		return err
	}
	token, err := s.issueToken(s.db, user.ID, entities.TokenPurposePasswordReset, s.config.PasswordResetTTL)
	if err != nil {
		return err
	}
	s.send(ctx, user, entities.TokenPurposePasswordReset, token)
	return nil
}

// ConfirmPasswordReset sets a new password from a reset token. The lockout
// counter and any API token are cleared.
func (s *Service) ConfirmPasswordReset(token, password, confirm string) error {
	if err := ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.consumeToken(tx, token, entities.TokenPurposePasswordReset)
		if err != nil {
			return err
		}
		return tx.Model(&entities.User{}).Where("id = ?", t.UserID).Updates(map[string]any{
			"password_hash":      hash,
			"failed_login_count": 0,
			"locked_until":       nil,
			"token_hash":         "",
			"token_created_at":   nil,
		}).Error
	})
}

func (s *Service) findByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("LOWER(email) = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// issueToken replaces any unused token of the same purpose and returns the
// plaintext of the new one.
func (s *Service) issueToken(tx *gorm.DB, userID uint, purpose entities.TokenPurpose, ttl time.Duration) (string, error) {
	plaintext, hash, err := GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	err = tx.Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
		Delete(&entities.UserToken{}).Error
	if err != nil {
		return "", err
	}
	err = tx.Create(&entities.UserToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hash,
		ExpiresAt: s.now().Add(ttl),
	}).Error
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

func (s *Service) consumeToken(tx *gorm.DB, plaintext string, purpose entities.TokenPurpose) (*entities.UserToken, error) {
	if plaintext == "" {
		return nil, ErrInvalidToken
	}
	var t entities.UserToken
	err := tx.Where("token_hash = ? AND purpose = ?", HashToken(plaintext), purpose).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if t.UsedAt != nil {
		return nil, ErrInvalidToken
	}
	now := s.now()
	if now.After(t.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	if err := tx.Model(&t).Update("used_at", now).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) send(ctx context.Context, user *entities.User, purpose entities.TokenPurpose, token string) {
	var err error
	switch purpose {
	case entities.TokenPurposeVerifyEmail:
		err = s.mailer.SendVerification(ctx, user, buildLink(s.config.PublicURL, "/api/auth/verify-email", token))
	case entities.TokenPurposePasswordReset:
		err = s.mailer.SendPasswordReset(ctx, user, buildLink(s.config.PublicURL, "/api/auth/password-reset/confirm", token))
	}
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Str("purpose", string(purpose)).Msg("failed to send account email")
	}
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ValidateToken checks a plaintext API token and returns its active owner.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var user entities.User
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return &user, nil
}

// GenerateToken creates a new API token for a user, replacing the old one.
// Returns the plaintext token (show to user once) - only the hash is stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	err := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword updates a user's password after checking the current one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword, confirm string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}
	if err := ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}
	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", newHash).Error
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	if err := s.db.Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
