package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobtrack/internal/applications"
	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/schema"
	"github.com/garnizeh/jobtrack/pkg/models"
)

const maxApplicationBody = 1 << 20

type ApplicationsHandler struct {
	svc     *applications.Service
	schemas *schema.Loader
}

func NewApplicationsHandler(svc *applications.Service, schemas *schema.Loader) *ApplicationsHandler {
	return &ApplicationsHandler{svc: svc, schemas: schemas}
}

func (h *ApplicationsHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	in, err := h.decode(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.svc.Create(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, a, http.StatusCreated)
}

func (h *ApplicationsHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	apps, err := h.svc.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, apps, http.StatusOK)
}

func (h *ApplicationsHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	a, err := h.svc.Get(r.Context(), id, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, a, http.StatusOK)
}

func (h *ApplicationsHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	in, err := h.decode(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.svc.Update(r.Context(), id, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, a, http.StatusOK)
}

func (h *ApplicationsHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode checks the body against the application schemas, including the
// rule that at least one contact channel is given, and decodes it. A
// contract type is meaningless for internships and is dropped.
func (h *ApplicationsHandler) decode(r *http.Request) (applications.Input, error) {
	var in applications.Input

	body, err := io.ReadAll(io.LimitReader(r.Body, maxApplicationBody+1))
	if err != nil {
		return in, apperror.New(apperror.Validation, "invalid request", err)
	}
	if len(body) > maxApplicationBody {
		return in, apperror.NewValidation("request body too large")
	}
	if !json.Valid(body) {
		return in, apperror.NewValidation("invalid json")
	}

	problems, err := h.schemas.Validate(r.Context(), schema.Application, body)
	if err != nil {
		return in, apperror.NewStorage("failed to validate request", err)
	}
	if len(problems) > 0 {
		return in, apperror.NewValidation(strings.Join(problems, "; "))
	}
	problems, err = h.schemas.Validate(r.Context(), schema.ApplicationContact, body)
	if err != nil {
		return in, apperror.NewStorage("failed to validate request", err)
	}
	if len(problems) > 0 {
		return in, apperror.NewValidation("contactEmail or contactPhone is required")
	}

	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return in, apperror.NewValidation(typeErr.Field + " has the wrong type")
		}
		return in, apperror.New(apperror.Validation, "invalid request", err)
	}
	if in.JobType == string(models.JobTypeInternship) {
		in.ContractType = ""
	}
	return in, nil
}
