package auth

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/database/users"
	"github.com/mrlokans/matjip/internal/entities"
	"github.com/mrlokans/matjip/internal/logging"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const (
	defaultMaxFailedLogins = 5
	defaultLockoutDuration = 30 * time.Minute
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// UserRepository is implemented by *users.Repository.
type UserRepository interface {
	Create(user *entities.User) error
	GetByID(id string) (*entities.User, error)
	GetByLogin(login string) (*entities.User, error)
	Count() (int64, error)
	RecordLogin(id string, at time.Time) error
	RecordFailedLogin(id string, failedCount int, lockedUntil *time.Time) error
}

// Registration is the input of Register.
type Registration struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm *string // checked when set
	Role            entities.UserRole
}

// Service handles local accounts: registration, password login and lockout.
type Service struct {
	users    UserRepository
	config   config.Auth
	notifier *Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new authentication service. notifier may be nil.
func NewService(repo UserRepository, cfg config.Auth, notifier *Notifier, logger *zap.Logger) *Service {
	return &Service{
		users:    repo,
		config:   cfg,
		notifier: notifier,
		logger:   logger.Named("auth"),
		now:      time.Now,
	}
}

// Register validates and creates a local user. The first user becomes an
// admin when no role is given; later users default to member.
func (s *Service) Register(reg Registration) (*entities.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	if reg.Username == "" {
		return nil, ErrUsernameRequired
	}
	if reg.Email == "" {
		return nil, ErrEmailRequired
	}
	if !usernamePattern.MatchString(reg.Username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 limit is 254
	if len(reg.Email) > 254 || !emailPattern.MatchString(reg.Email) {
		return nil, ErrEmailInvalid
	}
	if err := ValidatePassword(reg.Password, reg.PasswordConfirm); err != nil {
		return nil, err
	}

	role := reg.Role
	if role == "" {
		count, err := s.users.Count()
		if err != nil {
			return nil, errors.Wrap(err, "failed to count users")
		}
		role = entities.UserRoleMember
		if count == 0 {
			role = entities.UserRoleAdmin
		}
	}
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleMember:
	default:
		return nil, ErrInvalidRole
	}

	hash, err := HashPassword(reg.Password, s.config.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &entities.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, users.ErrExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String(logging.FieldUserID, user.ID), zap.String("role", string(role)))
	s.notifier.Publish(SessionEvent{Type: EventRegistered, Session: *sessionFromUser(user, s.now())})
	return user, nil
}

// Authenticate validates credentials and returns the user. Accounts are
// locked for LockoutDuration after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetByLogin(login)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user, now)
		return nil, err
	}

	if err := s.users.RecordLogin(user.ID, now); err != nil {
		s.logger.Warn("failed to record login", zap.String(logging.FieldUserID, user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return user, nil
}

func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxFailedLogins
	}
	lockout := s.config.LockoutDuration
	if lockout <= 0 {
		lockout = defaultLockoutDuration
	}

	user.FailedLoginCount++
	var lockedUntil *time.Time
	if user.FailedLoginCount >= maxAttempts {
		t := now.Add(lockout)
		lockedUntil = &t
		s.logger.Warn("account locked", zap.String(logging.FieldUserID, user.ID), zap.Time("until", t))
	}
	if err := s.users.RecordFailedLogin(user.ID, user.FailedLoginCount, lockedUntil); err != nil {
		s.logger.Warn("failed to record failed login", zap.String(logging.FieldUserID, user.ID), zap.Error(err))
	}
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id string) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	return count > 0, err
}

// Mode returns the configured authentication mode.
func (s *Service) Mode() config.AuthMode {
	return s.config.Mode
}
