package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/jobtrack/internal/credentials"
	"github.com/garnizeh/jobtrack/pkg/models"
)

type AuthHandler struct {
	creds         *credentials.Service
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(creds *credentials.Service, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{creds: creds, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "invalid request"}, http.StatusBadRequest)
		return
	}

	u, err := h.creds.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.respondWithToken(w, *u, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "invalid request"}, http.StatusBadRequest)
		return
	}

	u, err := h.creds.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.respondWithToken(w, *u, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	writeJSON(w, map[string]string{"message": "signed out"}, http.StatusOK)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, u models.PublicUser, status int) {
	tokenStr, err := h.issueToken(u)
	if err != nil {
		logger.Error("failed to sign token", "err", err)
		writeJSON(w, errorResponse{Error: "error signing token"}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, User: u}, status)
}

func (h *AuthHandler) issueToken(u models.PublicUser) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(h.tokenDuration).Unix(),
	})
	return token.SignedString([]byte(h.jwtSecret))
}
