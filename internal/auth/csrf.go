package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header browser clients echo the token in.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware protects cookie-authenticated writes. Requests are exempt
// when they carry a valid bearer token or no session cookie at all, since
// neither relies on ambient browser credentials.
func CSRFMiddleware(secret []byte, secure bool, authService *Service) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if isAPIWithValidBearer(c, authService) || !hasSessionCookie(c) {
			c.Next()
			return
		}

		serveProtected(c, protect, secure)
	}
}

// CSRFTokenIssuer always runs the CSRF handler so GET /api/auth/csrf can hand
// out a token before the client holds a session.
func CSRFTokenIssuer(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(secret, csrf.Secure(secure), csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode), csrf.Path("/"), csrf.RequestHeader(CSRFTokenHeader))
	return func(c *gin.Context) {
		serveProtected(c, protect, secure)
	}
}

// serveProtected runs the rest of the gin chain inside the gorilla handler and
// aborts the chain when the token check fails.
func serveProtected(c *gin.Context, protect func(http.Handler) http.Handler, secure bool) {
	passed := false
	handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passed = true
		c.Set(contextKeyCSRFToken, csrf.Token(r))
		c.Request = r
		c.Next()
	}))
	r := c.Request
	if !secure {
		r = csrf.PlaintextHTTPRequest(r)
	}
	handler.ServeHTTP(c.Writer, r)
	if !passed {
		c.Abort()
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

func hasSessionCookie(c *gin.Context) bool {
	cookie, err := c.Request.Cookie(SessionCookieName)
	return err == nil && cookie.Value != ""
}

// isAPIWithValidBearer reports whether the request carries a bearer token.
// When authService is set the token must also be valid.
func isAPIWithValidBearer(c *gin.Context, authService *Service) bool {
	token, ok := bearerToken(c)
	if !ok {
		return false
	}
	if authService == nil {
		return true
	}
	_, err := authService.ValidateToken(token)
	return err == nil
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(contextKeyCSRFToken)
}
