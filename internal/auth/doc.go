// Package auth provides accounts, authentication and authorization.
//
// Accounts register with an email and password and stay inactive until the
// emailed verification link is used. Clients then authenticate in one of two
// ways:
//   - Bearer tokens: POST /api/auth/login returns an opaque API token that is
//     sent as "Authorization: Bearer <token>". Only its SHA-256 hash is stored.
//   - Session cookies: the same login also starts an scs session backed by the
//     sessions table. Cookie-authenticated writes must carry a CSRF token in
//     the X-CSRF-Token header (see GET /api/auth/csrf).
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex>          # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h          # Session duration
//	AUTH_TOKEN_EXPIRY=720h             # API token expiry
//	AUTH_BCRYPT_COST=12                # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true           # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5          # Failures before lockout
//	AUTH_VERIFICATION_TOKEN_TTL=48h
//	AUTH_PASSWORD_RESET_TTL=1h
//	AUTH_PUBLIC_URL=https://lms.example.com
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth, nil)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(authMiddleware.Handler())
//
// Handlers read the caller with GetUserID and GetUserRole, and guard routes
// with RequireAuth, RequireRole, StaffOrReadOnly or StaffWritesOnly.
package auth
