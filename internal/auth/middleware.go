package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/entities"
)

// Middleware authenticates HTTP requests according to the configured mode.
type Middleware struct {
	config      config.Auth
	service     *Service
	sessions    *SessionManager
	firebase    *FirebaseAuthenticator
	logger      *zap.Logger
	publicPaths map[string]bool
}

// MiddlewareOption wires the backend of a mode.
type MiddlewareOption func(*Middleware)

// WithLocal enables local accounts with cookie sessions.
func WithLocal(service *Service, sessions *SessionManager) MiddlewareOption {
	return func(m *Middleware) {
		m.service = service
		m.sessions = sessions
	}
}

// WithFirebase enables Firebase ID token verification.
func WithFirebase(a *FirebaseAuthenticator) MiddlewareOption {
	return func(m *Middleware) { m.firebase = a }
}

func WithLogger(l *zap.Logger) MiddlewareOption {
	return func(m *Middleware) { m.logger = l.Named("auth") }
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(cfg config.Auth, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		config: cfg,
		logger: zap.NewNop(),
		publicPaths: map[string]bool{
			"/health":            true,
			"/metrics":           true,
			"/api/auth/login":    true,
			"/api/auth/register": true,
			"/api/auth/csrf":     true,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone || m.config.Mode == "" {
		return func(c *gin.Context) {
			setSession(c, defaultSession())
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if s := m.authenticate(c); s != nil {
			setSession(c, s)
			c.Next()
			return
		}
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrAuthRequired.Error()})
	}
}

func (m *Middleware) authenticate(c *gin.Context) *Session {
	switch m.config.Mode {
	case config.AuthModeFirebase:
		if m.firebase == nil {
			return nil
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			return nil
		}
		s, err := m.firebase.Authenticate(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("rejected id token", zap.Error(err))
			return nil
		}
		return s
	case config.AuthModeLocal:
		if m.sessions == nil {
			return nil
		}
		return m.sessions.GetSession(c.Request)
	}
	return nil
}

// isPublicPath checks if a path is reachable without authentication.
func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// RequireRole returns a middleware that requires one of roles.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrAuthRequired.Error()})
			return
		}
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a session, for routes on public paths.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrAuthRequired.Error()})
			return
		}
		c.Next()
	}
}
