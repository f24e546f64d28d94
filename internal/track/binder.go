package track

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
)

// Selection identifies the document to bind into an application slot. When
// VersionID is nil the document's original version is used.
type Selection struct {
	DocumentID uuid.UUID  `json:"document_id"`
	VersionID  *uuid.UUID `json:"version_id,omitempty"`
}

// CreateApplicationInput holds the caller's request to create an application.
// Customize applies uniformly to the resume and, when selected, the cover
// letter; it is one flag scoped to the whole operation.
type CreateApplicationInput struct {
	Company        string
	Position       string
	JobDescription string
	Instructions   string
	Resume         Selection
	CoverLetter    *Selection
	Customize      bool
	Status         string
	Notes          string
	AppliedDate    *db.Date
}

// Binder creates and mutates application records. It is the single
// validation and transaction boundary: version ownership is checked before
// any external call, customization happens through the engine, and the final
// insert is all-or-nothing.
type Binder struct {
	store  Store
	engine *Engine
}

// NewBinder creates an application binder.
func NewBinder(store Store, engine *Engine) *Binder {
	return &Binder{store: store, engine: engine}
}

// resolveSelection turns a selection into a concrete version, verifying
// existence, ownership, and document kind.
func (b *Binder) resolveSelection(ctx context.Context, ownerID uuid.UUID, sel Selection, kind db.DocumentKind) (*db.DocumentVersion, *db.Document, error) {
	if sel.VersionID != nil {
		version, doc, err := b.store.GetVersionWithDocument(ctx, *sel.VersionID)
		if err != nil {
			return nil, nil, err
		}
		if version == nil {
			return nil, nil, &ErrNotFound{Resource: "document version", ID: *sel.VersionID}
		}
		if doc.OwnerID != ownerID {
			return nil, nil, &ErrForbidden{Resource: "document version", ID: *sel.VersionID}
		}
		if doc.Kind != kind {
			return nil, nil, &ErrInvalidArgument{Field: "version_id", Message: "document is not a " + string(kind)}
		}
		if sel.DocumentID != uuid.Nil && sel.DocumentID != doc.ID {
			return nil, nil, &ErrInvalidArgument{Field: "version_id", Message: "version does not belong to the selected document"}
		}
		return version, doc, nil
	}

	doc, err := b.store.GetDocument(ctx, sel.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, &ErrNotFound{Resource: "document", ID: sel.DocumentID}
	}
	if doc.OwnerID != ownerID {
		return nil, nil, &ErrForbidden{Resource: "document", ID: sel.DocumentID}
	}
	if doc.Kind != kind {
		return nil, nil, &ErrInvalidArgument{Field: "document_id", Message: "document is not a " + string(kind)}
	}

	original, err := b.store.GetOriginalVersion(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	if original == nil {
		return nil, nil, &ErrNotFound{Resource: "original version", ID: doc.ID}
	}
	return original, doc, nil
}

func (b *Binder) validateCreate(input *CreateApplicationInput) error {
	input.Company = strings.TrimSpace(input.Company)
	input.Position = strings.TrimSpace(input.Position)

	if input.Company == "" {
		return &ErrInvalidArgument{Field: "company", Message: "company is required"}
	}
	if input.Position == "" {
		return &ErrInvalidArgument{Field: "position", Message: "position is required"}
	}
	if input.Resume.DocumentID == uuid.Nil && input.Resume.VersionID == nil {
		return &ErrInvalidArgument{Field: "resume", Message: "a resume selection is required"}
	}
	if input.Customize && strings.TrimSpace(input.JobDescription) == "" {
		return &ErrInvalidArgument{Field: "job_description", Message: "job description is required when customize is set"}
	}
	if input.Status != "" && !db.ValidStatus(input.Status) {
		return &ErrInvalidArgument{Field: "status", Message: "unknown status " + input.Status}
	}
	return nil
}

// CreateApplication validates the selections, runs optional customization,
// and persists the application atomically. Any failure before the final
// insert leaves no application row; a generator failure leaves no new
// version either.
func (b *Binder) CreateApplication(ctx context.Context, ownerID uuid.UUID, input CreateApplicationInput) (*db.Application, error) {
	if err := b.validateCreate(&input); err != nil {
		return nil, err
	}

	resumeVersion, resumeDoc, err := b.resolveSelection(ctx, ownerID, input.Resume, db.KindResume)
	if err != nil {
		return nil, err
	}

	var coverVersion *db.DocumentVersion
	var coverDoc *db.Document
	if input.CoverLetter != nil {
		coverVersion, coverDoc, err = b.resolveSelection(ctx, ownerID, *input.CoverLetter, db.KindCoverLetter)
		if err != nil {
			return nil, err
		}
	}

	// generatedIDs collects versions generated during this request so a
	// later failure can undo them: a generator failure must leave behind
	// neither an application row nor a new version row.
	var generatedIDs []uuid.UUID

	var customizedAt *time.Time
	if input.Customize {
		resumeVersion, err = b.customizeSlot(ctx, resumeDoc, input, &generatedIDs)
		if err != nil {
			return nil, err
		}
		if coverDoc != nil {
			coverVersion, err = b.customizeSlot(ctx, coverDoc, input, &generatedIDs)
			if err != nil {
				b.rollbackVersions(ctx, generatedIDs)
				return nil, err
			}
		}

		// Stamp only when new content was actually generated in this
		// request; a pure reuse hit does not count as "customized now".
		if len(generatedIDs) > 0 {
			now := time.Now().UTC()
			customizedAt = &now
		}
	}

	createInput := db.ApplicationCreateInput{
		OwnerID:         ownerID,
		Company:         input.Company,
		Position:        input.Position,
		JobDescription:  input.JobDescription,
		Instructions:    input.Instructions,
		ResumeVersionID: resumeVersion.ID,
		CustomizedAt:    customizedAt,
		Status:          input.Status,
		Notes:           input.Notes,
		AppliedDate:     input.AppliedDate,
	}
	if coverVersion != nil {
		createInput.CoverLetterVersionID = &coverVersion.ID
	}

	app, err := b.store.CreateApplication(ctx, createInput)
	if err != nil {
		b.rollbackVersions(ctx, generatedIDs)
		return nil, mapStoreError(err)
	}
	return app, nil
}

// customizeSlot runs the engine for one document slot and records the
// version when this request generated it.
func (b *Binder) customizeSlot(ctx context.Context, doc *db.Document, input CreateApplicationInput, generatedIDs *[]uuid.UUID) (*db.DocumentVersion, error) {
	version, generated, err := b.engine.CustomizeForApplication(ctx, doc.ID, input.Company, input.JobDescription, input.Instructions)
	if err != nil {
		return nil, err
	}
	if generated {
		*generatedIDs = append(*generatedIDs, version.ID)
	}
	return version, nil
}

// rollbackVersions deletes versions generated during a creation that failed.
// The store skips any version an application references in the meantime, and
// the rollback runs detached from the request context so a client disconnect
// cannot leave the rows behind.
func (b *Binder) rollbackVersions(ctx context.Context, ids []uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if _, err := b.store.DeleteUnreferencedVersion(ctx, id); err != nil {
			log.Printf("[binder] failed to roll back version %s: %v", id, err)
		}
	}
}

// UpdateApplicationInput is the binder's update request. Version references
// are replaced through selections so the same validation path runs.
type UpdateApplicationInput struct {
	Company        *string
	Position       *string
	JobDescription *string
	Status         *string
	Notes          *string
	AppliedDate    *db.Date
	Resume         *Selection
	CoverLetter    *Selection
}

// UpdateApplication is the only mutation path for applications; it never
// bypasses version validation.
func (b *Binder) UpdateApplication(ctx context.Context, ownerID, applicationID uuid.UUID, input UpdateApplicationInput) (*db.Application, error) {
	if input.Status != nil && !db.ValidStatus(*input.Status) {
		return nil, &ErrInvalidArgument{Field: "status", Message: "unknown status " + *input.Status}
	}

	update := db.ApplicationUpdateInput{
		Company:        input.Company,
		Position:       input.Position,
		JobDescription: input.JobDescription,
		Status:         input.Status,
		Notes:          input.Notes,
		AppliedDate:    input.AppliedDate,
	}

	if input.Resume != nil {
		version, _, err := b.resolveSelection(ctx, ownerID, *input.Resume, db.KindResume)
		if err != nil {
			return nil, err
		}
		update.ResumeVersionID = &version.ID
	}
	if input.CoverLetter != nil {
		version, _, err := b.resolveSelection(ctx, ownerID, *input.CoverLetter, db.KindCoverLetter)
		if err != nil {
			return nil, err
		}
		update.CoverLetterVersionID = &version.ID
	}

	app, err := b.store.UpdateApplication(ctx, ownerID, applicationID, update)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if app == nil {
		return nil, &ErrNotFound{Resource: "application", ID: applicationID}
	}
	return app, nil
}

// GetApplication retrieves an owner-scoped application with resolved versions.
func (b *Binder) GetApplication(ctx context.Context, ownerID, applicationID uuid.UUID) (*db.Application, error) {
	app, err := b.store.GetApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, &ErrNotFound{Resource: "application", ID: applicationID}
	}
	return app, nil
}

// ListApplications lists an owner's applications with filters and pagination.
func (b *Binder) ListApplications(ctx context.Context, ownerID uuid.UUID, filters db.ApplicationFilters) ([]db.Application, int, error) {
	if filters.Status != "" && !db.ValidStatus(filters.Status) {
		return nil, 0, &ErrInvalidArgument{Field: "status", Message: "unknown status " + filters.Status}
	}
	return b.store.ListApplications(ctx, ownerID, filters)
}

// DeleteApplication removes an application and garbage collects customized
// versions left unreferenced by it. Originals are never deleted.
func (b *Binder) DeleteApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]uuid.UUID, error) {
	deleted, err := b.store.DeleteApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}
	// The store returns a nil slice only when the application does not exist;
	// a successful delete with nothing to clean up yields an empty slice.
	if deleted == nil {
		return nil, &ErrNotFound{Resource: "application", ID: applicationID}
	}
	return deleted, nil
}

// SearchApplications searches by company, position, job description, or notes.
func (b *Binder) SearchApplications(ctx context.Context, ownerID uuid.UUID, query string, page, perPage int) ([]db.Application, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, &ErrInvalidArgument{Field: "q", Message: "search query is required"}
	}
	return b.store.SearchApplications(ctx, ownerID, query, page, perPage)
}

// ApplicationStats summarizes an owner's applications.
func (b *Binder) ApplicationStats(ctx context.Context, ownerID uuid.UUID) (*db.ApplicationStats, error) {
	return b.store.GetApplicationStats(ctx, ownerID)
}

// mapStoreError converts the store's sentinel errors into the binder's
// taxonomy.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, db.ErrVersionMissing):
		return &ErrNotFound{Resource: "document version"}
	case errors.Is(err, db.ErrOwnershipViolation):
		return &ErrForbidden{Resource: "document version"}
	case errors.Is(err, db.ErrKindMismatch):
		return &ErrInvalidArgument{Field: "version_id", Message: "document version has wrong kind"}
	default:
		return err
	}
}
