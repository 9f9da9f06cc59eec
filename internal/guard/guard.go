// Package guard decides whether an authenticated identity may act on a
// single application record. Every read, update and delete of one record
// goes through it; listings filter by owner instead.
package guard

import (
	"context"
	"log/slog"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

// Identity is the authenticated caller as yielded by the identity provider.
// The guard trusts it as given.
type Identity struct {
	UserID string
}

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Decision int

const (
	Allowed Decision = iota
	NotFound
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Err returns nil for Allowed and the matching typed error otherwise.
func (d Decision) Err() error {
	switch d {
	case Allowed:
		return nil
	case NotFound:
		return apperror.NewNotFound("application not found")
	default:
		return apperror.NewForbidden("application belongs to another user")
	}
}

// Decide compares the identity against the record's owner. rec is nil when
// the record does not exist.
func Decide(id Identity, rec *models.Application) Decision {
	if rec == nil {
		return NotFound
	}
	if rec.OwnerID != id.UserID {
		return Forbidden
	}
	return Allowed
}

// Lookup resolves a record by id, returning nil when it does not exist.
type Lookup interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
}

type Guard struct {
	lookup Lookup
	logger *slog.Logger
}

func New(lookup Lookup, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{lookup: lookup, logger: logger}
}

// Authorize looks the record up and decides. On Allowed the resolved record
// is returned so callers need no second lookup.
func (g *Guard) Authorize(ctx context.Context, id Identity, recordID string, action Action) (Decision, *models.Application, error) {
	if id.UserID == "" {
		return Forbidden, nil, apperror.NewAuth("authentication required")
	}

	rec, err := g.lookup.GetApplication(ctx, recordID)
	if err != nil {
		g.logger.Error("guard lookup failed", "record_id", recordID, "err", err)
		return NotFound, nil, apperror.NewStorage("failed to load application", err)
	}

	d := g.record(id, recordID, action, rec)
	if d != Allowed {
		return d, nil, nil
	}
	return d, rec, nil
}

// Require is Authorize folded into a single error result.
func (g *Guard) Require(ctx context.Context, id Identity, recordID string, action Action) (*models.Application, error) {
	d, rec, err := g.Authorize(ctx, id, recordID, action)
	if err != nil {
		return nil, err
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Check returns a repository.CheckFunc that applies the same decision to the
// row a mutating transaction has just read.
func (g *Guard) Check(id Identity, recordID string, action Action) repository.CheckFunc {
	return func(current *models.Application) error {
		if id.UserID == "" {
			return apperror.NewAuth("authentication required")
		}
		return g.record(id, recordID, action, current).Err()
	}
}

func (g *Guard) record(id Identity, recordID string, action Action, rec *models.Application) Decision {
	d := Decide(id, rec)
	if d == Forbidden {
		g.logger.Warn("ownership check denied",
			slog.String("user_id", id.UserID),
			slog.String("record_id", recordID),
			slog.String("action", string(action)),
		)
	}
	return d
}
