// Package server provides the HTTP REST API for the job tracker.
package server

import (
	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
)

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest is the password change payload.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// LoginResponse carries the authenticated user and their session token.
type LoginResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// CreateDocumentRequest is the payload for uploading a resume or cover
// letter. Content may be plain text, markdown, or pasted HTML; it is
// normalized before storage and becomes the document's original version.
type CreateDocumentRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=resume cover_letter"`
	Title   string `json:"title" validate:"required,min=1,max=300"`
	Content string `json:"content" validate:"required,min=1"`
}

// SelectionRequest identifies a document slot for an application. VersionID
// pins a specific version; when absent the original is used.
type SelectionRequest struct {
	DocumentID uuid.UUID  `json:"document_id"`
	VersionID  *uuid.UUID `json:"version_id,omitempty"`
}

// CreateApplicationRequest is the payload for creating a job application.
type CreateApplicationRequest struct {
	Company        string            `json:"company" validate:"required,min=1,max=300"`
	Position       string            `json:"position" validate:"required,min=1,max=300"`
	JobDescription string            `json:"job_description,omitempty"`
	Instructions   string            `json:"instructions,omitempty"`
	Resume         SelectionRequest  `json:"resume" validate:"required"`
	CoverLetter    *SelectionRequest `json:"cover_letter,omitempty"`
	Customize      bool              `json:"customize,omitempty"`
	Status         string            `json:"status,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	AppliedDate    *db.Date          `json:"applied_date,omitempty"`
}

// UpdateApplicationRequest is the payload for partial application updates.
// Absent fields keep their stored values.
type UpdateApplicationRequest struct {
	Company        *string           `json:"company,omitempty"`
	Position       *string           `json:"position,omitempty"`
	JobDescription *string           `json:"job_description,omitempty"`
	Status         *string           `json:"status,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	AppliedDate    *db.Date          `json:"applied_date,omitempty"`
	Resume         *SelectionRequest `json:"resume,omitempty"`
	CoverLetter    *SelectionRequest `json:"cover_letter,omitempty"`
}

// ListResponse is the standard paginated collection envelope.
type ListResponse[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DeleteApplicationResponse reports which customized versions were garbage
// collected alongside the application.
type DeleteApplicationResponse struct {
	Deleted         bool        `json:"deleted"`
	CleanedVersions []uuid.UUID `json:"cleaned_versions"`
}
