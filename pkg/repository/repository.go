package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/jobtrack/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// CheckFunc decides whether a mutation may proceed against the current state
// of a record. current is nil when the record does not exist. Implementations
// run it inside the mutating transaction and return its error unchanged.
type CheckFunc func(current *models.Application) error

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateCredentials writes only the non-nil fields, in one statement.
	UpdateCredentials(ctx context.Context, id string, username, passwordHash *string) error
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
}

type ApplicationRepo interface {
	// CreateApplication persists a and its reminders atomically. a.ID and the
	// reminder ids are assigned by the implementation.
	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplicationsByOwner(ctx context.Context, ownerID string) ([]models.Application, error)
	// UpdateApplication replaces the mutable fields and the whole reminder set.
	UpdateApplication(ctx context.Context, id string, check CheckFunc, f models.ApplicationFields, reminders []models.Reminder) (*models.Application, error)
	// DeleteApplication removes the record and its reminders.
	DeleteApplication(ctx context.Context, id string, check CheckFunc) error
}
