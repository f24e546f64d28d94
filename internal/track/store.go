package track

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
)

// Store is the document-store boundary consumed by the engine and binder.
// *db.DB satisfies it; tests substitute in-memory fakes.
type Store interface {
	GetDocument(ctx context.Context, documentID uuid.UUID) (*db.Document, error)
	GetOriginalVersion(ctx context.Context, documentID uuid.UUID) (*db.DocumentVersion, error)
	GetVersionWithDocument(ctx context.Context, versionID uuid.UUID) (*db.DocumentVersion, *db.Document, error)
	FindVersionByCompany(ctx context.Context, documentID uuid.UUID, company string) (*db.DocumentVersion, error)
	CreateVersion(ctx context.Context, input db.VersionCreateInput) (*db.DocumentVersion, bool, error)
	DeleteUnreferencedVersion(ctx context.Context, versionID uuid.UUID) (bool, error)

	CreateApplication(ctx context.Context, input db.ApplicationCreateInput) (*db.Application, error)
	UpdateApplication(ctx context.Context, ownerID, applicationID uuid.UUID, input db.ApplicationUpdateInput) (*db.Application, error)
	GetApplication(ctx context.Context, ownerID, applicationID uuid.UUID) (*db.Application, error)
	ListApplications(ctx context.Context, ownerID uuid.UUID, filters db.ApplicationFilters) ([]db.Application, int, error)
	DeleteApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]uuid.UUID, error)
	SearchApplications(ctx context.Context, ownerID uuid.UUID, query string, page, perPage int) ([]db.Application, int, error)
	GetApplicationStats(ctx context.Context, ownerID uuid.UUID) (*db.ApplicationStats, error)
}

// Generator is the external AI text-generation backend. Implementations must
// respect the context deadline; any error maps to ErrCustomizationFailed.
type Generator interface {
	Generate(ctx context.Context, source, jobDescription, instructions string) (string, error)
}
