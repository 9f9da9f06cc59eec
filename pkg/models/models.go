package models

import (
	"fmt"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username" validate:"required,min=3"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created"`
}

// PublicUser is the identity returned to callers. It never carries the hash.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserSummary struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	CreatedAt        time.Time `json:"createdAt"`
	ApplicationCount int       `json:"applicationCount"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// ParseStatus maps an empty value to StatusApplied and rejects anything
// outside the enumeration.
func ParseStatus(s string) (Status, error) {
	switch v := Status(s); v {
	case "":
		return StatusApplied, nil
	case StatusApplied, StatusInterview, StatusAccepted, StatusRejected:
		return v, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

type ApplicationType string

const (
	ApplicationTypeResponse    ApplicationType = "response"
	ApplicationTypeSpontaneous ApplicationType = "spontaneous"
)

func ParseApplicationType(s string) (ApplicationType, error) {
	switch v := ApplicationType(s); v {
	case "":
		return ApplicationTypeResponse, nil
	case ApplicationTypeResponse, ApplicationTypeSpontaneous:
		return v, nil
	}
	return "", fmt.Errorf("unknown application type %q", s)
}

type JobType string

const (
	JobTypeJob        JobType = "job"
	JobTypeInternship JobType = "internship"
)

func ParseJobType(s string) (JobType, error) {
	switch v := JobType(s); v {
	case "":
		return JobTypeJob, nil
	case JobTypeJob, JobTypeInternship:
		return v, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// ContractType only carries meaning when JobType is JobTypeJob.
type ContractType string

const (
	ContractCDI     ContractType = "cdi"
	ContractCDD     ContractType = "cdd"
	ContractInterim ContractType = "interim"
)

// ParseContractType returns nil for an empty value.
func ParseContractType(s string) (*ContractType, error) {
	switch v := ContractType(s); v {
	case "":
		return nil, nil
	case ContractCDI, ContractCDD, ContractInterim:
		return &v, nil
	}
	return nil, fmt.Errorf("unknown contract type %q", s)
}

// ApplicationFields holds every attribute of an Application an owner may change.
type ApplicationFields struct {
	Company         string          `json:"company"`
	Position        string          `json:"position"`
	Status          Status          `json:"status"`
	ApplicationDate time.Time       `json:"applicationDate"`
	Notes           *string         `json:"notes"`
	ContactEmail    *string         `json:"contactEmail"`
	ContactPhone    *string         `json:"contactPhone"`
	Salary          *string         `json:"salary"`
	Location        *string         `json:"location"`
	URL             *string         `json:"url"`
	ApplicationType ApplicationType `json:"applicationType"`
	JobType         JobType         `json:"jobType"`
	ContractType    *ContractType   `json:"contractType"`
	CoverLetterPath *string         `json:"coverLetterPath"`
	CompanyLogoPath *string         `json:"companyLogoPath"`
}

type Application struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"ownerId" db:"owner_id"`
	ApplicationFields
	CreatedAt time.Time  `json:"createdAt" db:"created"`
	Reminders []Reminder `json:"reminders"`
}

// Reminder ids are regenerated whenever the parent application is updated.
type Reminder struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	Title         string    `json:"title" db:"title"`
	Date          time.Time `json:"date" db:"date"`
	Completed     bool      `json:"completed" db:"completed"`
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{"2006-01-02", time.RFC3339Nano}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and
// returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
