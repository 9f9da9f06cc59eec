package guard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/guard"
	"github.com/garnizeh/jobtrack/pkg/models"
)

type fakeLookup struct {
	recs map[string]*models.Application
	err  error
}

func (f *fakeLookup) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recs[id], nil
}

func TestDecide(t *testing.T) {
	rec := &models.Application{ID: "a1", OwnerID: "u1"}

	tests := []struct {
		name string
		id   guard.Identity
		rec  *models.Application
		want guard.Decision
	}{
		{name: "absent", id: guard.Identity{UserID: "u1"}, rec: nil, want: guard.NotFound},
		{name: "owner", id: guard.Identity{UserID: "u1"}, rec: rec, want: guard.Allowed},
		{name: "other_user", id: guard.Identity{UserID: "u2"}, rec: rec, want: guard.Forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.Decide(tt.id, tt.rec); got != tt.want {
				t.Fatalf("want %v got %v", tt.want, got)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	rec := &models.Application{ID: "a1", OwnerID: "u1", ApplicationFields: models.ApplicationFields{Company: "Acme"}}
	g := guard.New(&fakeLookup{recs: map[string]*models.Application{"a1": rec}}, nil)
	ctx := context.Background()

	d, got, err := g.Authorize(ctx, guard.Identity{UserID: "u1"}, "a1", guard.ActionRead)
	if err != nil || d != guard.Allowed || got != rec {
		t.Fatalf("owner: got %v %#v %v", d, got, err)
	}

	d, got, err = g.Authorize(ctx, guard.Identity{UserID: "u2"}, "a1", guard.ActionUpdate)
	if err != nil || d != guard.Forbidden || got != nil {
		t.Fatalf("non-owner must not receive the record: got %v %#v %v", d, got, err)
	}

	d, got, err = g.Authorize(ctx, guard.Identity{UserID: "u1"}, "missing", guard.ActionDelete)
	if err != nil || d != guard.NotFound || got != nil {
		t.Fatalf("missing: got %v %#v %v", d, got, err)
	}

	if _, _, err := g.Authorize(ctx, guard.Identity{}, "a1", guard.ActionRead); !apperror.IsAuth(err) {
		t.Fatalf("expected auth error for empty identity, got %v", err)
	}
}

func TestAuthorize_LookupFailure(t *testing.T) {
	g := guard.New(&fakeLookup{err: errors.New("db down")}, nil)
	_, _, err := g.Authorize(context.Background(), guard.Identity{UserID: "u1"}, "a1", guard.ActionRead)
	if !apperror.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestRequireAndCheck(t *testing.T) {
	rec := &models.Application{ID: "a1", OwnerID: "u1"}
	g := guard.New(&fakeLookup{recs: map[string]*models.Application{"a1": rec}}, nil)
	ctx := context.Background()

	if _, err := g.Require(ctx, guard.Identity{UserID: "u2"}, "a1", guard.ActionRead); !apperror.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := g.Require(ctx, guard.Identity{UserID: "u2"}, "nope", guard.ActionRead); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	check := g.Check(guard.Identity{UserID: "u1"}, "a1", guard.ActionUpdate)
	if err := check(rec); err != nil {
		t.Fatalf("owner check failed: %v", err)
	}
	if err := check(nil); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found for vanished record, got %v", err)
	}
	other := g.Check(guard.Identity{UserID: "u2"}, "a1", guard.ActionDelete)
	if err := other(rec); !apperror.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
