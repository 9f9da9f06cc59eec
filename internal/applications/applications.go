// Package applications implements the owner-scoped lifecycle of job
// application records: create, list, get, update and delete.
package applications

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/guard"
	"github.com/garnizeh/jobtrack/internal/reminder"
	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

// Input is an application as submitted by a caller. Empty optional strings
// are stored as null and empty enums take their default.
type Input struct {
	Company         string           `json:"company" validate:"required"`
	Position        string           `json:"position" validate:"required"`
	Status          string           `json:"status"`
	ApplicationDate string           `json:"applicationDate" validate:"required"`
	Notes           string           `json:"notes"`
	ContactEmail    string           `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone    string           `json:"contactPhone"`
	Salary          string           `json:"salary"`
	Location        string           `json:"location"`
	URL             string           `json:"url"`
	ApplicationType string           `json:"applicationType"`
	JobType         string           `json:"jobType"`
	ContractType    string           `json:"contractType"`
	CoverLetterPath string           `json:"coverLetterPath"`
	CompanyLogoPath string           `json:"companyLogoPath"`
	Reminders       []reminder.Input `json:"reminders"`
}

type Service struct {
	repo     repository.ApplicationRepo
	guard    *guard.Guard
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(repo repository.ApplicationRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		guard:    guard.New(repo, logger),
		validate: validator.New(),
		logger:   logger,
	}
}

// Create stores a new record owned by the caller together with its initial
// reminders.
func (s *Service) Create(ctx context.Context, id guard.Identity, in Input) (*models.Application, error) {
	if id.UserID == "" {
		return nil, apperror.NewAuth("authentication required")
	}
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}

	a := &models.Application{
		OwnerID:           id.UserID,
		ApplicationFields: f,
		Reminders:         reminder.Reconcile(in.Reminders),
	}
	if err := s.repo.CreateApplication(ctx, a); err != nil {
		return nil, s.storage("failed to create application", err)
	}

	s.logger.Info("application created", "application_id", a.ID, "user_id", id.UserID, "reminders", len(a.Reminders))
	return a, nil
}

// List returns the caller's records, newest first.
func (s *Service) List(ctx context.Context, id guard.Identity) ([]models.Application, error) {
	if id.UserID == "" {
		return nil, apperror.NewAuth("authentication required")
	}
	apps, err := s.repo.ListApplicationsByOwner(ctx, id.UserID)
	if err != nil {
		return nil, s.storage("failed to list applications", err)
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s *Service) Get(ctx context.Context, id guard.Identity, recordID string) (*models.Application, error) {
	return s.guard.Require(ctx, id, recordID, guard.ActionRead)
}

// Update replaces every mutable field and the whole reminder set. The
// ownership decision is taken on the row read by the update transaction.
func (s *Service) Update(ctx context.Context, id guard.Identity, recordID string, in Input) (*models.Application, error) {
	if id.UserID == "" {
		return nil, apperror.NewAuth("authentication required")
	}
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}

	a, err := s.repo.UpdateApplication(ctx, recordID, s.guard.Check(id, recordID, guard.ActionUpdate), f, reminder.Reconcile(in.Reminders))
	if err != nil {
		return nil, s.storage("failed to update application", err)
	}

	s.logger.Info("application updated", "application_id", recordID, "user_id", id.UserID, "reminders", len(a.Reminders))
	return a, nil
}

// Delete removes the record and all of its reminders.
func (s *Service) Delete(ctx context.Context, id guard.Identity, recordID string) error {
	if id.UserID == "" {
		return apperror.NewAuth("authentication required")
	}
	if err := s.repo.DeleteApplication(ctx, recordID, s.guard.Check(id, recordID, guard.ActionDelete)); err != nil {
		return s.storage("failed to delete application", err)
	}

	s.logger.Info("application deleted", "application_id", recordID, "user_id", id.UserID)
	return nil
}

// fields validates in and converts it to the stored shape.
func (s *Service) fields(in Input) (models.ApplicationFields, error) {
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	if err := s.validate.Struct(in); err != nil {
		return models.ApplicationFields{}, validationError(err)
	}

	date, err := models.ParseDate(in.ApplicationDate)
	if err != nil {
		return models.ApplicationFields{}, apperror.NewValidation("applicationDate must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	status, err := models.ParseStatus(in.Status)
	if err != nil {
		return models.ApplicationFields{}, apperror.NewValidation(err.Error())
	}
	appType, err := models.ParseApplicationType(in.ApplicationType)
	if err != nil {
		return models.ApplicationFields{}, apperror.NewValidation(err.Error())
	}
	jobType, err := models.ParseJobType(in.JobType)
	if err != nil {
		return models.ApplicationFields{}, apperror.NewValidation(err.Error())
	}
	contract, err := models.ParseContractType(in.ContractType)
	if err != nil {
		return models.ApplicationFields{}, apperror.NewValidation(err.Error())
	}

	return models.ApplicationFields{
		Company:         in.Company,
		Position:        in.Position,
		Status:          status,
		ApplicationDate: date,
		Notes:           optional(in.Notes),
		ContactEmail:    optional(in.ContactEmail),
		ContactPhone:    optional(in.ContactPhone),
		Salary:          optional(in.Salary),
		Location:        optional(in.Location),
		URL:             optional(in.URL),
		ApplicationType: appType,
		JobType:         jobType,
		ContractType:    contract,
		CoverLetterPath: optional(in.CoverLetterPath),
		CompanyLogoPath: optional(in.CompanyLogoPath),
	}, nil
}

// storage passes typed errors through and wraps everything else.
func (s *Service) storage(msg string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.Error(msg, "err", err)
	return apperror.NewStorage(msg, err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var fieldNames = map[string]string{
	"Company":         "company",
	"Position":        "position",
	"ApplicationDate": "applicationDate",
	"ContactEmail":    "contactEmail",
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.New(apperror.Validation, "invalid input", err)
	}

	fe := verrs[0]
	field := fieldNames[fe.Field()]
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return apperror.NewValidation(field + " is required")
	case "email":
		return apperror.NewValidation(field + " must be a valid email address")
	}
	return apperror.NewValidation(field + " is invalid")
}
