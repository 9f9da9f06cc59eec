package credentials_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/credentials"
	"github.com/garnizeh/jobtrack/pkg/repository/mock"
)

func newService(t *testing.T) (*credentials.Service, *mock.UserRepo) {
	t.Helper()
	repo := mock.NewUserRepo()
	return credentials.NewService(repo, bcrypt.MinCost, nil), repo
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantKind apperror.Kind
	}{
		{name: "too_short_username", username: "ab", password: "secret1", wantKind: apperror.Validation},
		{name: "missing_username", username: "", password: "secret1", wantKind: apperror.Validation},
		{name: "blank_username", username: "     ", password: "secret1", wantKind: apperror.Validation},
		{name: "padded_short_username", username: " ab ", password: "secret1", wantKind: apperror.Validation},
		{name: "too_short_password", username: "alice", password: "12345", wantKind: apperror.Validation},
		{name: "ok", username: "alice", password: "secret1", wantKind: apperror.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			u, err := svc.Register(context.Background(), tt.username, tt.password)
			if got := apperror.KindOf(err); got != tt.wantKind {
				t.Fatalf("want kind %v got %v (err=%v)", tt.wantKind, got, err)
			}
			if tt.wantKind == apperror.Unknown && (u == nil || u.ID == "" || u.Username != tt.username) {
				t.Fatalf("unexpected user: %#v", u)
			}
		})
	}
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "admin", "other-pass")
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict on second register, got %v", err)
	}

	// usernames are case-sensitive
	if _, err := svc.Register(ctx, "Admin", "admin123"); err != nil {
		t.Fatalf("expected different case to be accepted, got %v", err)
	}
}

func TestRegister_StorageFailure(t *testing.T) {
	svc, repo := newService(t)
	repo.CreateErr = errors.New("disk full")

	_, err := svc.Register(context.Background(), "alice", "secret1")
	if !apperror.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestAuthenticateAndProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Authenticate(ctx, "alice", "secret1")
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate: %#v %v", got, err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong-pass"); !apperror.IsAuth(err) {
		t.Fatalf("expected auth error for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "secret1"); !apperror.IsAuth(err) {
		t.Fatalf("expected auth error for unknown user, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "", ""); !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}

	p, err := svc.Profile(ctx, u.ID)
	if err != nil || p.Username != "alice" || p.CreatedAt.IsZero() {
		t.Fatalf("profile: %#v %v", p, err)
	}
	if _, err := svc.Profile(ctx, "missing"); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("list users: %#v %v", users, err)
	}
}

func TestEnsureUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.EnsureUser(ctx, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("first EnsureUser: created=%v err=%v", created, err)
	}
	created, err = svc.EnsureUser(ctx, "admin", "different")
	if err != nil || created {
		t.Fatalf("second EnsureUser: created=%v err=%v", created, err)
	}
	if _, err := svc.Authenticate(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("existing password must be kept, got %v", err)
	}
	if _, err := svc.EnsureUser(ctx, "root", "123"); !apperror.IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestRegister_TrimsUsername(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  alice ", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("want trimmed username, got %q", u.Username)
	}
	if _, err := svc.Register(ctx, "alice", "secret2"); !apperror.IsConflict(err) {
		t.Fatalf("trimmed duplicate must conflict, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, " alice", "secret1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}
