package api

import (
	"encoding/json"
	"net/http"

	"github.com/garnizeh/jobtrack/internal/credentials"
)

// ProfileHandler serves the caller's own account and the user directory.
type ProfileHandler struct {
	creds *credentials.Service
}

func NewProfileHandler(creds *credentials.Service) *ProfileHandler {
	return &ProfileHandler{creds: creds}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	p, err := h.creds.Profile(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// UpdateProfile rotates the caller's username and/or password.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req credentials.RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "invalid request"}, http.StatusBadRequest)
		return
	}

	u, err := h.creds.Rotate(r.Context(), id.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, u, http.StatusOK)
}

func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}

	users, err := h.creds.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, users, http.StatusOK)
}
