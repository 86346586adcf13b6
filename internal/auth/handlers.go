package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/entities"
)

// AuthController serves the /api/auth endpoints.
type AuthController struct {
	service     *Service
	sessions    *SessionManager
	rateLimiter *RateLimiter
	notifier    *Notifier
	logger      *zap.Logger
}

// NewAuthController creates a controller. service, sessions and rateLimiter
// are nil outside local mode; only /me is served then.
func NewAuthController(service *Service, sessions *SessionManager, rateLimiter *RateLimiter, notifier *Notifier, logger *zap.Logger) *AuthController {
	return &AuthController{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		notifier:    notifier,
		logger:      logger.Named("auth"),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/auth")
	g.GET("/me", ac.Me)
	if ac.service == nil || ac.sessions == nil {
		return
	}
	g.GET("/csrf", ac.CSRFToken)
	g.POST("/register", ac.Register)
	g.POST("/login", ac.Login)
	g.POST("/logout", ac.Logout)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type registerRequest struct {
	Username        string  `json:"username" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	PasswordConfirm *string `json:"password_confirm"`
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	User *entities.User `json:"user"`
}

// Register creates a local account and signs it in.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := ac.service.Register(Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case isValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ac.logger.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	if !ac.signIn(c, user) {
		return
	}
	c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login verifies credentials and starts a cookie session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
		return
	}
	ip := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Login); !allowed {
		ac.tooManyAttempts(c, retryAfter)
		return
	}

	user, err := ac.service.Authenticate(req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
			if locked, retryAfter := ac.rateLimiter.RecordFailure(ip, req.Login); locked {
				ac.tooManyAttempts(c, retryAfter)
				return
			}
			// same answer for unknown users and wrong passwords
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			ac.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	ac.rateLimiter.RecordSuccess(ip, req.Login)
	if !ac.signIn(c, user) {
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", retryAfter.Round(time.Second).String())
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "too many login attempts",
		"retry_after": retryAfter.Round(time.Second).String(),
	})
}

func (ac *AuthController) signIn(c *gin.Context, user *entities.User) bool {
	now := time.Now()
	if err := ac.sessions.CreateSession(c.Request, user, now); err != nil {
		ac.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return false
	}
	s := sessionFromUser(user, now)
	setSession(c, s)
	ac.notifier.Publish(SessionEvent{Type: EventSignedIn, Session: *s})
	return true
}

// Logout ends the cookie session.
func (ac *AuthController) Logout(c *gin.Context) {
	s := GetSession(c)
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		ac.logger.Error("failed to destroy session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	if s != nil {
		ac.notifier.Publish(SessionEvent{Type: EventSignedOut, Session: *s})
	}
	c.Status(http.StatusNoContent)
}

// Me returns the session of the request.
func (ac *AuthController) Me(c *gin.Context) {
	s := GetSession(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrAuthRequired.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// CSRFToken hands out the token to send in X-CSRF-Token.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c), "header": CSRFTokenHeader})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrEmailRequired, ErrUsernameInvalid, ErrEmailInvalid, ErrInvalidRole,
		ErrPasswordTooShort, ErrPasswordTooLong, ErrPasswordMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
