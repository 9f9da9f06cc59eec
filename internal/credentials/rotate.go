package credentials

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

// RotateRequest carries the requested changes. Empty strings mean "not supplied".
type RotateRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
	NewPassword     string `json:"newPassword"`
}

// Rotate changes the caller's username and/or password. Checks run in a fixed
// order and stop at the first failure; only fields that actually change are
// written, in one update.
func (s *Service) Rotate(ctx context.Context, userID string, req RotateRequest) (*models.PublicUser, error) {
	if req.NewUsername == "" && req.NewPassword == "" {
		return nil, apperror.NewValidation("nothing to change")
	}
	// a supplied username is trimmed, so all-blank input fails the length rule
	newUsername := strings.TrimSpace(req.NewUsername)
	if req.NewUsername != "" && utf8.RuneCountInString(newUsername) < MinUsernameLength {
		return nil, apperror.NewValidation("username must be at least 3 characters")
	}
	if req.NewPassword != "" && utf8.RuneCountInString(req.NewPassword) < MinPasswordLength {
		return nil, apperror.NewValidation("password must be at least 6 characters")
	}
	if req.NewPassword != "" && req.CurrentPassword == "" {
		return nil, apperror.NewValidation("current password required")
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.storage("failed to load user", err)
	}
	if u == nil {
		return nil, apperror.NewNotFound("user not found")
	}

	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			s.logger.Warn("credential rotation rejected", "user_id", userID)
			return nil, apperror.NewAuth("current password is incorrect")
		}
	}

	var username *string
	if newUsername != "" && newUsername != u.Username {
		taken, err := s.users.GetUserByUsername(ctx, newUsername)
		if err != nil {
			return nil, s.storage("failed to look up user", err)
		}
		if taken != nil {
			return nil, apperror.NewConflict("username already taken")
		}
		username = &newUsername
	}

	var hash *string
	if req.NewPassword != "" {
		h, err := s.hash(req.NewPassword)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	if err := s.users.UpdateCredentials(ctx, userID, username, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.NewConflict("username already taken")
		}
		return nil, s.storage("failed to update credentials", err)
	}

	out := models.PublicUser{ID: u.ID, Username: u.Username}
	if username != nil {
		out.Username = *username
		s.logger.Info("username changed", "user_id", userID)
	}
	if hash != nil {
		s.logger.Info("password changed", "user_id", userID)
	}
	return &out, nil
}
