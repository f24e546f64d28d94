package db

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind distinguishes resumes from cover letters. Both share the
// same versioning model.
type DocumentKind string

const (
	KindResume      DocumentKind = "resume"
	KindCoverLetter DocumentKind = "cover_letter"
)

// Valid reports whether the kind is one of the known document kinds.
func (k DocumentKind) Valid() bool {
	return k == KindResume || k == KindCoverLetter
}

// Document is the master record for a resume or cover letter. Content lives
// in its versions; the master only carries identity and ownership.
type Document struct {
	ID        uuid.UUID    `json:"id"`
	OwnerID   uuid.UUID    `json:"owner_id"`
	Kind      DocumentKind `json:"kind"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// DocumentVersion is an immutable content snapshot of a document. Either the
// original ("v1") or a company-targeted customization ("v2 - {company}").
// Content is never mutated after insert.
type DocumentVersion struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	Label         string    `json:"label"`
	Content       string    `json:"content"`
	IsOriginal    bool      `json:"is_original"`
	TargetCompany *string   `json:"target_company,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// VersionCreateInput holds the fields for inserting a customized version.
type VersionCreateInput struct {
	DocumentID    uuid.UUID
	Label         string
	Content       string
	TargetCompany string
}
