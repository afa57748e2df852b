package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/validation"
)

// Auditor receives authentication events. *audit.Service implements it.
type Auditor interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
}

// AuthController serves the JSON account endpoints under /api/auth.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	auditor        Auditor
}

// NewAuthController creates the controller and its login rate limiter.
// sessionManager and auditor may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, auditor Auditor) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		auditor: auditor,
	}
}

// RegisterRoutes registers the account routes on group, normally /api/auth.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/verify-email", ac.VerifyEmail)
	group.POST("/verify-email", ac.VerifyEmail)
	group.POST("/resend-verification", ac.ResendVerification)
	group.POST("/password-reset", ac.RequestPasswordReset)
	group.POST("/password-reset/confirm", ac.ConfirmPasswordReset)
	group.POST("/change-password", ac.ChangePassword)
	group.GET("/me", ac.Me)
	group.POST("/token", ac.GenerateToken)
	group.DELETE("/token", ac.RevokeToken)
}

// Stop releases the rate limiter goroutine.
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	FullName        string `json:"full_name" validate:"max=255"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type resetConfirmRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Register creates an inactive account and sends the verification email.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Email, req.FullName, req.Password, req.ConfirmPassword)
	if err != nil {
		ac.logAuth(c, 0, "register", false)
		respondAuthError(c, err)
		return
	}

	ac.logAuth(c, user.ID, "register", true)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please verify your email.",
		"user":    user,
	})
}

// Login checks credentials, starts a session and returns a fresh API token.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	ip := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Email); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many login attempts. Please try again later.",
			"retry_after": retryAfter.Round(time.Second).String(),
		})
		return
	}

	user, err := ac.service.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.rateLimiter.RecordFailure(ip, req.Email)
		}
		ac.logAuth(c, 0, "login", false)
		respondAuthError(c, err)
		return
	}
	ac.rateLimiter.RecordSuccess(ip, req.Email)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to create session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	token, err := ac.service.GenerateToken(user.ID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	ac.logAuth(c, user.ID, "login", true)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Logout ends the session and revokes the API token used for the request.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := GetUserID(c)
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	if GetAuthType(c) == AuthTypeBearer {
		if err := ac.service.RevokeToken(userID); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("failed to revoke token on logout")
		}
	}
	ac.logAuth(c, userID, "logout", true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

// VerifyEmail accepts the token as ?token= or in a JSON body.
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" && c.Request.Method == http.MethodPost {
		var req tokenRequest
		if !bind(c, &req) {
			return
		}
		token = req.Token
	}

	user, err := ac.service.VerifyEmail(token)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	ac.logAuth(c, user.ID, "verify_email", true)
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully."})
}

func (ac *AuthController) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := ac.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists and is not verified, a new link has been sent."})
}

// RequestPasswordReset always answers 200 so addresses cannot be probed.
func (ac *AuthController) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := ac.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		log.Error().Err(err).Msg("password reset request failed")
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent."})
}

func (ac *AuthController) ConfirmPasswordReset(c *gin.Context) {
	var req resetConfirmRequest
	if !bind(c, &req) {
		return
	}
	if err := ac.service.ConfirmPasswordReset(req.Token, req.Password, req.ConfirmPassword); err != nil {
		respondAuthError(c, err)
		return
	}
	ac.logAuth(c, 0, "password_reset", true)
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset."})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	err := ac.service.ChangePassword(userID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if errors.Is(err, ErrInvalidPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Old password is incorrect."})
		return
	}
	if err != nil {
		respondAuthError(c, err)
		return
	}
	ac.logAuth(c, userID, "change_password", true)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully."})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CSRFToken hands the current CSRF token to browser clients.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c)})
}

// GenerateToken creates a new API token for the authenticated user.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	token, err := ac.service.GenerateToken(GetUserID(c))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	if err := ac.service.RevokeToken(GetUserID(c)); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}

// bind decodes and validates the body, answering 400 on failure.
func bind(c *gin.Context, payload any) bool {
	err := validation.BindAndValidate(c, payload)
	if err == nil {
		return true
	}
	if fields := validation.FieldErrorsOf(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "code": "validation_error", "details": fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}

// AuthErrorStatus maps service errors onto HTTP statuses.
func AuthErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmailNotVerified), errors.Is(err, ErrAccountDisabled), errors.Is(err, ErrAccountLocked):
		return http.StatusForbidden
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong), errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondAuthError(c *gin.Context, err error) {
	status := AuthErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("auth request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": AuthErrorMessage(err)})
}

// AuthErrorMessage returns the client-facing text for a service error.
func AuthErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrEmailNotVerified):
		return "Email not verified"
	case errors.Is(err, ErrAccountDisabled):
		return "Account is disabled"
	case errors.Is(err, ErrAccountLocked):
		return "Account is locked. Please try again later."
	case errors.Is(err, ErrUserExists):
		return "A user with this email already exists."
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return "Invalid or expired token."
	}
	return err.Error()
}
