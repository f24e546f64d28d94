package db

import (
	"time"

	"github.com/google/uuid"
)

// Valid application statuses. Peripheral workflow metadata; the core only
// stores and filters on these, it never drives transitions.
const (
	StatusApplied      = "Applied"
	StatusInterviewing = "Interviewing"
	StatusRejected     = "Rejected"
	StatusOffer        = "Offer"
	StatusWithdrawn    = "Withdrawn"
)

// ValidStatuses lists the accepted application status values.
var ValidStatuses = []string{StatusApplied, StatusInterviewing, StatusRejected, StatusOffer, StatusWithdrawn}

// ValidStatus reports whether s is a known application status.
func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Application is a job-application record binding a resume version and an
// optional cover-letter version. It references version data, it never owns
// it: deleting an application does not touch originals.
type Application struct {
	ID                   uuid.UUID  `json:"id"`
	OwnerID              uuid.UUID  `json:"owner_id"`
	Company              string     `json:"company"`
	Position             string     `json:"position"`
	JobDescription       string     `json:"job_description,omitempty"`
	Instructions         string     `json:"instructions,omitempty"`
	ResumeVersionID      uuid.UUID  `json:"resume_version_id"`
	CoverLetterVersionID *uuid.UUID `json:"cover_letter_version_id,omitempty"`
	CustomizedAt         *time.Time `json:"customized_at,omitempty"`
	Status               string     `json:"status"`
	Notes                string     `json:"notes,omitempty"`
	AppliedDate          *Date      `json:"applied_date,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Resolved version snapshots so callers can render labels without a
	// second round trip. Populated on reads, never written back.
	ResumeVersion      *DocumentVersion `json:"resume_version,omitempty"`
	CoverLetterVersion *DocumentVersion `json:"cover_letter_version,omitempty"`
}

// ApplicationCreateInput holds the validated fields for the transactional
// application insert.
type ApplicationCreateInput struct {
	OwnerID              uuid.UUID
	Company              string
	Position             string
	JobDescription       string
	Instructions         string
	ResumeVersionID      uuid.UUID
	CoverLetterVersionID *uuid.UUID
	CustomizedAt         *time.Time
	Status               string
	Notes                string
	AppliedDate          *Date
}

// ApplicationUpdateInput holds optional fields for the update path. Nil
// pointers leave the column untouched.
type ApplicationUpdateInput struct {
	Company              *string
	Position             *string
	JobDescription       *string
	Status               *string
	Notes                *string
	AppliedDate          *Date
	ResumeVersionID      *uuid.UUID
	CoverLetterVersionID *uuid.UUID
}

// ApplicationFilters holds optional filters for listing applications
type ApplicationFilters struct {
	Status  string
	Company string
	Page    int
	PerPage int
}

// ApplicationStats summarizes a user's applications by status.
type ApplicationStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	RecentMonth int            `json:"recent_month"`
}
