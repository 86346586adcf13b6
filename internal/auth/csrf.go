package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header carrying the CSRF token on unsafe requests.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware protects cookie-authenticated requests. Requests that carry
// a bearer token are not exposed to CSRF and skip the check; safe methods
// are never checked.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if _, ok := bearerToken(c.GetHeader("Authorization")); ok {
			c.Next()
			return
		}

		r := c.Request
		if !secure {
			// without this gorilla/csrf assumes TLS and demands a matching Referer
			r = csrf.PlaintextHTTPRequest(r)
		}

		called := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Set(contextKeyCSRFToken, csrf.Token(r))
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, r)

		if !called {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

// GetCSRFToken retrieves the CSRF token of the request, or "" when CSRF
// protection is off.
func GetCSRFToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(contextKeyCSRFToken))
}
