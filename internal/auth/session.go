package auth

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/matjip/internal/entities"
)

// DefaultUserID owns all data when authentication is disabled.
const DefaultUserID = "default"

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone     AuthType = "none"
	AuthTypeSession  AuthType = "session"
	AuthTypeFirebase AuthType = "firebase"
)

// Session is the authenticated user of one request.
type Session struct {
	UserID      string            `json:"user_id"`
	Username    string            `json:"username,omitempty"`
	Email       string            `json:"email,omitempty"`
	DisplayName string            `json:"display_name,omitempty"`
	Role        entities.UserRole `json:"role,omitempty"`
	AuthType    AuthType          `json:"auth_type"`
	IssuedAt    time.Time         `json:"issued_at"`
}

// defaultSession is used in "none" mode.
func defaultSession() *Session {
	return &Session{UserID: DefaultUserID, Role: entities.UserRoleAdmin, AuthType: AuthTypeNone}
}

// sessionFromUser builds the session of a locally authenticated user.
func sessionFromUser(u *entities.User, issuedAt time.Time) *Session {
	return &Session{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		AuthType: AuthTypeSession,
		IssuedAt: issuedAt,
	}
}

type sessionKey struct{}

// ContextKeySession is the gin context key holding the *Session.
const ContextKeySession = "auth_session"

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// setSession stores s in both the gin context and the request context.
func setSession(c *gin.Context, s *Session) {
	c.Set(ContextKeySession, s)
	c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
}

// GetSession retrieves the session from the gin context. Returns nil on
// unauthenticated public paths.
func GetSession(c *gin.Context) *Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user's ID, or "" when there is none.
func GetUserID(c *gin.Context) string {
	if s := GetSession(c); s != nil {
		return s.UserID
	}
	return ""
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if s := GetSession(c); s != nil {
		return s.Role
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if s := GetSession(c); s != nil {
		return s.AuthType
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if the request carries a session.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
