package db

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const applicationColumns = `id, owner_id, company, position, job_description, instructions,
	resume_version_id, cover_letter_version_id, customized_at, status, notes,
	applied_date, created_at, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.OwnerID, &a.Company, &a.Position, &a.JobDescription, &a.Instructions,
		&a.ResumeVersionID, &a.CoverLetterVersionID, &a.CustomizedAt, &a.Status, &a.Notes,
		&a.AppliedDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// validateVersionTx checks inside a transaction that a version exists, is
// owned by ownerID, and belongs to a document of the expected kind. The row
// is locked FOR SHARE so it cannot disappear before the surrounding insert
// commits.
func validateVersionTx(ctx context.Context, tx pgx.Tx, versionID, ownerID uuid.UUID, kind DocumentKind) error {
	var docOwner uuid.UUID
	var docKind DocumentKind
	err := tx.QueryRow(ctx,
		`SELECT d.owner_id, d.kind
		 FROM document_versions v
		 JOIN documents d ON d.id = v.document_id
		 WHERE v.id = $1
		 FOR SHARE OF v`,
		versionID,
	).Scan(&docOwner, &docKind)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrVersionMissing
		}
		return fmt.Errorf("failed to validate version %s: %w", versionID, err)
	}
	if docOwner != ownerID {
		return ErrOwnershipViolation
	}
	if docKind != kind {
		return ErrKindMismatch
	}
	return nil
}

// CreateApplication inserts an application inside a single transaction that
// also re-validates the referenced versions. The transaction is the unit of
// work: it is opened and committed exactly once here, so a validation
// failure leaves no application row behind.
func (db *DB) CreateApplication(ctx context.Context, input ApplicationCreateInput) (*Application, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	if err := validateVersionTx(ctx, tx, input.ResumeVersionID, input.OwnerID, KindResume); err != nil {
		return nil, err
	}
	if input.CoverLetterVersionID != nil {
		if err := validateVersionTx(ctx, tx, *input.CoverLetterVersionID, input.OwnerID, KindCoverLetter); err != nil {
			return nil, err
		}
	}

	status := input.Status
	if status == "" {
		status = StatusApplied
	}

	app, err := scanApplication(tx.QueryRow(ctx,
		`INSERT INTO applications (owner_id, company, position, job_description, instructions,
		                           resume_version_id, cover_letter_version_id, customized_at,
		                           status, notes, applied_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, CURRENT_DATE))
		 RETURNING `+applicationColumns,
		input.OwnerID, input.Company, input.Position, input.JobDescription, input.Instructions,
		input.ResumeVersionID, input.CoverLetterVersionID, input.CustomizedAt,
		status, input.Notes, input.AppliedDate,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit application: %w", err)
	}

	// The row is durable at this point. A snapshot load failure must not
	// surface as an error, or the caller would retry a create that already
	// succeeded and end up with a duplicate.
	attachVersionSnapshots(ctx, db, app)
	return app, nil
}

// versionGetter is the slice of the store needed to resolve version
// snapshots.
type versionGetter interface {
	GetVersion(ctx context.Context, versionID uuid.UUID) (*DocumentVersion, error)
}

// loadVersionSnapshots attaches the resolved version snapshots so callers
// can render labels without a second round trip.
func loadVersionSnapshots(ctx context.Context, store versionGetter, app *Application) error {
	resume, err := store.GetVersion(ctx, app.ResumeVersionID)
	if err != nil {
		return err
	}
	app.ResumeVersion = resume

	if app.CoverLetterVersionID != nil {
		cover, err := store.GetVersion(ctx, *app.CoverLetterVersionID)
		if err != nil {
			return err
		}
		app.CoverLetterVersion = cover
	}
	return nil
}

// attachVersionSnapshots is the best-effort variant used after a commit: the
// failure is logged and the application returned without snapshots.
func attachVersionSnapshots(ctx context.Context, store versionGetter, app *Application) {
	if err := loadVersionSnapshots(ctx, store, app); err != nil {
		log.Printf("[db] failed to load version snapshots for application %s: %v", app.ID, err)
	}
}

// GetApplication retrieves an application by ID with resolved versions,
// scoped to the owner.
func (db *DB) GetApplication(ctx context.Context, ownerID, applicationID uuid.UUID) (*Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE id = $1 AND owner_id = $2`,
		applicationID, ownerID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	if err := loadVersionSnapshots(ctx, db, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListApplications retrieves a user's applications with optional filters and
// pagination. Returns the page plus the total match count.
func (db *DB) ListApplications(ctx context.Context, ownerID uuid.UUID, filters ApplicationFilters) ([]Application, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PerPage < 1 {
		filters.PerPage = 20
	}

	where := ` FROM applications WHERE owner_id = $1`
	args := []any{ownerID}
	argNum := 2

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Company != "" {
		where += fmt.Sprintf(" AND company ILIKE $%d", argNum)
		args = append(args, "%"+filters.Company+"%")
		argNum++
	}

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	query := `SELECT ` + applicationColumns + where +
		fmt.Sprintf(" ORDER BY applied_date DESC, created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filters.PerPage, (filters.Page-1)*filters.PerPage)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Company, &a.Position, &a.JobDescription, &a.Instructions,
			&a.ResumeVersionID, &a.CoverLetterVersionID, &a.CustomizedAt, &a.Status, &a.Notes,
			&a.AppliedDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, total, nil
}

// UpdateApplication applies partial updates inside a transaction, re-running
// version validation whenever a version reference changes.
func (db *DB) UpdateApplication(ctx context.Context, ownerID, applicationID uuid.UUID, input ApplicationUpdateInput) (*Application, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	// Lock the row so concurrent updates serialize.
	app, err := scanApplication(tx.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE id = $1 AND owner_id = $2
		 FOR UPDATE`,
		applicationID, ownerID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application for update: %w", err)
	}

	if input.Company != nil {
		app.Company = *input.Company
	}
	if input.Position != nil {
		app.Position = *input.Position
	}
	if input.JobDescription != nil {
		app.JobDescription = *input.JobDescription
	}
	if input.Status != nil {
		if !ValidStatus(*input.Status) {
			return nil, fmt.Errorf("invalid status: %q", *input.Status)
		}
		app.Status = *input.Status
	}
	if input.Notes != nil {
		app.Notes = *input.Notes
	}
	if input.AppliedDate != nil {
		app.AppliedDate = input.AppliedDate
	}
	if input.ResumeVersionID != nil {
		if err := validateVersionTx(ctx, tx, *input.ResumeVersionID, ownerID, KindResume); err != nil {
			return nil, err
		}
		app.ResumeVersionID = *input.ResumeVersionID
	}
	if input.CoverLetterVersionID != nil {
		if err := validateVersionTx(ctx, tx, *input.CoverLetterVersionID, ownerID, KindCoverLetter); err != nil {
			return nil, err
		}
		app.CoverLetterVersionID = input.CoverLetterVersionID
	}

	app, err = scanApplication(tx.QueryRow(ctx,
		`UPDATE applications
		 SET company = $1, position = $2, job_description = $3, status = $4, notes = $5,
		     applied_date = COALESCE($6, applied_date), resume_version_id = $7,
		     cover_letter_version_id = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING `+applicationColumns,
		app.Company, app.Position, app.JobDescription, app.Status, app.Notes,
		app.AppliedDate, app.ResumeVersionID, app.CoverLetterVersionID, applicationID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit application update: %w", err)
	}

	// Same post-commit rule as creation: the update is already durable.
	attachVersionSnapshots(ctx, db, app)
	return app, nil
}

// DeleteApplication deletes an application. Customized versions it references
// are garbage collected when no other application uses them; originals are
// always preserved. Returns the IDs of versions that were cleaned up, or a
// nil slice when the application does not exist.
func (db *DB) DeleteApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]uuid.UUID, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	app, err := scanApplication(tx.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE id = $1 AND owner_id = $2
		 FOR UPDATE`,
		applicationID, ownerID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application for deletion: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM applications WHERE id = $1`, applicationID); err != nil {
		return nil, fmt.Errorf("failed to delete application: %w", err)
	}

	// Garbage collect customized versions that no other application uses.
	candidates := []uuid.UUID{app.ResumeVersionID}
	if app.CoverLetterVersionID != nil {
		candidates = append(candidates, *app.CoverLetterVersionID)
	}

	deleted := []uuid.UUID{}
	for _, versionID := range candidates {
		result, err := tx.Exec(ctx,
			`DELETE FROM document_versions
			 WHERE id = $1 AND NOT is_original
			   AND NOT EXISTS (
			       SELECT 1 FROM applications
			       WHERE resume_version_id = $1 OR cover_letter_version_id = $1
			   )`,
			versionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to clean up version %s: %w", versionID, err)
		}
		if result.RowsAffected() > 0 {
			deleted = append(deleted, versionID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit application deletion: %w", err)
	}
	return deleted, nil
}

// SearchApplications searches a user's applications by company, position,
// job description, or notes.
func (db *DB) SearchApplications(ctx context.Context, ownerID uuid.UUID, query string, page, perPage int) ([]Application, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	pattern := "%" + query + "%"

	where := ` FROM applications
		 WHERE owner_id = $1
		   AND (company ILIKE $2 OR position ILIKE $2 OR job_description ILIKE $2 OR notes ILIKE $2)`

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, ownerID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+where+
			` ORDER BY applied_date DESC, created_at DESC LIMIT $3 OFFSET $4`,
		ownerID, pattern, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Company, &a.Position, &a.JobDescription, &a.Instructions,
			&a.ResumeVersionID, &a.CoverLetterVersionID, &a.CustomizedAt, &a.Status, &a.Notes,
			&a.AppliedDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, total, nil
}

// GetApplicationStats returns per-status counts and recent activity for a user
func (db *DB) GetApplicationStats(ctx context.Context, ownerID uuid.UUID) (*ApplicationStats, error) {
	stats := &ApplicationStats{ByStatus: make(map[string]int)}

	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM applications
		 WHERE owner_id = $1 GROUP BY status`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get application stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}

	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE owner_id = $1 AND applied_date >= CURRENT_DATE - INTERVAL '30 days'`,
		ownerID,
	).Scan(&stats.RecentMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent application count: %w", err)
	}

	return stats, nil
}
