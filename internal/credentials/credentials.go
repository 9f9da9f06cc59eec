// Package credentials registers users, verifies passwords and applies
// credential rotation. Password hashes never leave this package.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

type Service struct {
	users    repository.UserRepo
	validate *validator.Validate
	cost     int
	logger   *slog.Logger
}

// NewService returns a Service hashing with the given bcrypt cost. A cost of
// zero selects bcrypt.DefaultCost.
func NewService(users repository.UserRepo, cost int, logger *slog.Logger) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, validate: validator.New(), cost: cost, logger: logger}
}

type registerInput struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=6"`
}

// Register creates a user. Usernames are trimmed, case-sensitive and unique.
func (s *Service) Register(ctx context.Context, username, password string) (*models.PublicUser, error) {
	username = strings.TrimSpace(username)
	if err := s.validate.Struct(registerInput{Username: username, Password: password}); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, s.storage("failed to look up user", err)
	}
	if existing != nil {
		return nil, apperror.NewConflict("username already taken")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("username already taken")
		}
		return nil, s.storage("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	pub := u.Public()
	return &pub, nil
}

// Authenticate verifies a username/password pair. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.PublicUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.NewValidation("username and password are required")
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, s.storage("failed to look up user", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperror.NewAuth("invalid credentials")
	}

	pub := u.Public()
	return &pub, nil
}

// Profile returns the caller's public profile.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.storage("failed to load user", err)
	}
	if u == nil {
		return nil, apperror.NewNotFound("user not found")
	}
	return &models.Profile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, s.storage("failed to list users", err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.NewValidation("password must be at most 72 bytes")
		}
		return "", apperror.New(apperror.Storage, "failed to hash password", err)
	}
	return string(b), nil
}

func (s *Service) storage(msg string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFound("user not found")
	}
	s.logger.Error(msg, "err", err)
	return apperror.NewStorage(msg, err)
}

// validationError turns the first failed rule into a field-level message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.New(apperror.Validation, "invalid input", err)
	}

	fe := verrs[0]
	field := map[string]string{"Username": "username", "Password": "password"}[fe.Field()]
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return apperror.NewValidation(field + " is required")
	case "min":
		return apperror.NewValidation(field + " must be at least " + fe.Param() + " characters")
	}
	return apperror.NewValidation(field + " is invalid")
}

// EnsureUser registers username unless it already exists. It reports whether
// a user was created; an existing user keeps its password.
func (s *Service) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, s.storage("failed to look up user", err)
	}
	if existing != nil {
		return false, nil
	}

	if _, err := s.Register(ctx, username, password); err != nil {
		if apperror.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
