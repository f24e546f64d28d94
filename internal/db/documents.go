package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-tracker/internal/versioning"
)

// -----------------------------------------------------------------------------
// Document Methods
// -----------------------------------------------------------------------------

// CreateDocument inserts a document master record together with its original
// "v1" version in one transaction. Every document has exactly one original.
func (db *DB) CreateDocument(ctx context.Context, ownerID uuid.UUID, kind DocumentKind, title, content string) (*Document, *DocumentVersion, error) {
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("invalid document kind: %q", kind)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	var doc Document
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (owner_id, kind, title)
		 VALUES ($1, $2, $3)
		 RETURNING id, owner_id, kind, title, created_at, updated_at`,
		ownerID, kind, title,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Kind, &doc.Title, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create document: %w", err)
	}

	var ver DocumentVersion
	err = tx.QueryRow(ctx,
		`INSERT INTO document_versions (document_id, label, content, is_original)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING id, document_id, label, content, is_original, target_company, created_at`,
		doc.ID, versioning.OriginalLabel, content,
	).Scan(&ver.ID, &ver.DocumentID, &ver.Label, &ver.Content, &ver.IsOriginal, &ver.TargetCompany, &ver.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create original version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit document creation: %w", err)
	}

	return &doc, &ver, nil
}

// GetDocument retrieves a document by ID
func (db *DB) GetDocument(ctx context.Context, documentID uuid.UUID) (*Document, error) {
	var doc Document
	err := db.pool.QueryRow(ctx,
		`SELECT id, owner_id, kind, title, created_at, updated_at
		 FROM documents WHERE id = $1`,
		documentID,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Kind, &doc.Title, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments retrieves a user's documents, optionally filtered by kind
func (db *DB) ListDocuments(ctx context.Context, ownerID uuid.UUID, kind DocumentKind) ([]Document, error) {
	query := `SELECT id, owner_id, kind, title, created_at, updated_at
		FROM documents WHERE owner_id = $1`
	args := []any{ownerID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Kind, &doc.Title, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument deletes a document and all its versions. Deletion is blocked
// while any application references one of the document's versions.
func (db *DB) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	var refs int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications a
		 JOIN document_versions v ON v.id IN (a.resume_version_id, a.cover_letter_version_id)
		 WHERE v.document_id = $1`,
		documentID,
	).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count application references: %w", err)
	}
	if refs > 0 {
		return ErrDocumentReferenced
	}

	result, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", documentID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document deletion: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Version Methods
// -----------------------------------------------------------------------------

const versionColumns = `id, document_id, label, content, is_original, target_company, created_at`

func scanVersion(row pgx.Row) (*DocumentVersion, error) {
	var v DocumentVersion
	err := row.Scan(&v.ID, &v.DocumentID, &v.Label, &v.Content, &v.IsOriginal, &v.TargetCompany, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVersion retrieves a document version by ID
func (db *DB) GetVersion(ctx context.Context, versionID uuid.UUID) (*DocumentVersion, error) {
	v, err := scanVersion(db.pool.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE id = $1`,
		versionID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return v, nil
}

// GetVersionWithDocument retrieves a version together with its owning
// document in one query. Used for ownership and kind validation.
func (db *DB) GetVersionWithDocument(ctx context.Context, versionID uuid.UUID) (*DocumentVersion, *Document, error) {
	var v DocumentVersion
	var doc Document
	err := db.pool.QueryRow(ctx,
		`SELECT v.id, v.document_id, v.label, v.content, v.is_original, v.target_company, v.created_at,
		        d.id, d.owner_id, d.kind, d.title, d.created_at, d.updated_at
		 FROM document_versions v
		 JOIN documents d ON d.id = v.document_id
		 WHERE v.id = $1`,
		versionID,
	).Scan(&v.ID, &v.DocumentID, &v.Label, &v.Content, &v.IsOriginal, &v.TargetCompany, &v.CreatedAt,
		&doc.ID, &doc.OwnerID, &doc.Kind, &doc.Title, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get version with document: %w", err)
	}
	return &v, &doc, nil
}

// GetOriginalVersion retrieves the "v1" original version of a document
func (db *DB) GetOriginalVersion(ctx context.Context, documentID uuid.UUID) (*DocumentVersion, error) {
	v, err := scanVersion(db.pool.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM document_versions
		 WHERE document_id = $1 AND is_original`,
		documentID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get original version: %w", err)
	}
	return v, nil
}

// FindVersionByCompany retrieves the customized version for a (document,
// company) pair if one exists. This is the reuse lookup: an exact structured
// key, never a label pattern match.
func (db *DB) FindVersionByCompany(ctx context.Context, documentID uuid.UUID, company string) (*DocumentVersion, error) {
	v, err := scanVersion(db.pool.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM document_versions
		 WHERE document_id = $1 AND target_company = $2 AND NOT is_original`,
		documentID, strings.TrimSpace(company),
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find version by company: %w", err)
	}
	return v, nil
}

// ListVersions retrieves all versions of a document, original first
func (db *DB) ListVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+versionColumns+` FROM document_versions
		 WHERE document_id = $1
		 ORDER BY is_original DESC, created_at ASC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []DocumentVersion
	for rows.Next() {
		var v DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Label, &v.Content, &v.IsOriginal, &v.TargetCompany, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// CreateVersion inserts a customized version. The partial unique index on
// (document_id, target_company) makes concurrent inserts race-safe: the
// loser gets no row back and re-fetches the winner. The returned bool is
// true only when this call actually inserted the row.
func (db *DB) CreateVersion(ctx context.Context, input VersionCreateInput) (*DocumentVersion, bool, error) {
	company := strings.TrimSpace(input.TargetCompany)
	if company == "" {
		return nil, false, fmt.Errorf("target company cannot be empty")
	}

	v, err := scanVersion(db.pool.QueryRow(ctx,
		`INSERT INTO document_versions (document_id, label, content, is_original, target_company)
		 VALUES ($1, $2, $3, FALSE, $4)
		 ON CONFLICT (document_id, target_company) WHERE target_company IS NOT NULL DO NOTHING
		 RETURNING `+versionColumns,
		input.DocumentID, input.Label, input.Content, company,
	))
	if err == nil {
		return v, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create version: %w", err)
	}

	// Lost the uniqueness race; return the winner's row.
	existing, err := db.FindVersionByCompany(ctx, input.DocumentID, company)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("version conflict for document %s and company %q but no existing row", input.DocumentID, company)
	}
	return existing, false, nil
}

// DeleteUnreferencedVersion removes a customized version that no application
// references, undoing a version generated for an application creation that
// later failed. Originals and referenced versions are left untouched.
func (db *DB) DeleteUnreferencedVersion(ctx context.Context, versionID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM document_versions
		 WHERE id = $1
		   AND is_original = FALSE
		   AND NOT EXISTS (
		       SELECT 1 FROM applications
		       WHERE resume_version_id = $1 OR cover_letter_version_id = $1)`,
		versionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete version %s: %w", versionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountVersionReferences returns how many applications reference a version
// in either slot.
func (db *DB) CountVersionReferences(ctx context.Context, versionID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE resume_version_id = $1 OR cover_letter_version_id = $1`,
		versionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count version references: %w", err)
	}
	return count, nil
}
