package track

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/versioning"
)

// DefaultGenerationTimeout bounds a single AI generation call.
const DefaultGenerationTimeout = 90 * time.Second

// Engine orchestrates AI customization of document versions. It is safe for
// concurrent use: in-process duplicate requests for the same (document,
// company) pair collapse onto one generator call, and cross-process races
// are resolved by the store's uniqueness constraint.
type Engine struct {
	store     Store
	generator Generator
	timeout   time.Duration
	group     singleflight.Group
}

// NewEngine creates a customization engine. A zero timeout falls back to
// DefaultGenerationTimeout.
func NewEngine(store Store, generator Generator, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &Engine{
		store:     store,
		generator: generator,
		timeout:   timeout,
	}
}

// customizeResult carries the singleflight payload.
type customizeResult struct {
	version   *db.DocumentVersion
	generated bool
}

// CustomizeForApplication returns the customized version of a document for a
// company, generating it if it does not exist yet. The returned bool is true
// only when this call produced new content; a reuse hit is idempotent and
// cheap: no AI call, no new row.
func (e *Engine) CustomizeForApplication(ctx context.Context, documentID uuid.UUID, company, jobDescription, instructions string) (*db.DocumentVersion, bool, error) {
	company = strings.TrimSpace(company)

	label, err := versioning.CustomizationLabel(company)
	if err != nil {
		return nil, false, &ErrInvalidArgument{Field: "company", Message: err.Error()}
	}

	key := documentID.String() + "\x00" + company
	v, err, shared := e.group.Do(key, func() (any, error) {
		// The flight may serve several collapsed callers, so it must not
		// die with the leader: detach it from the leader's context and let
		// the generation timeout bound it instead.
		return e.customize(context.WithoutCancel(ctx), documentID, company, label, jobDescription, instructions)
	})
	if err != nil {
		return nil, false, err
	}

	// A collapsed duplicate did not itself produce the content, so it does
	// not report the generation as its own.
	result := v.(customizeResult)
	return result.version, result.generated && !shared, nil
}

func (e *Engine) customize(ctx context.Context, documentID uuid.UUID, company, label, jobDescription, instructions string) (customizeResult, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return customizeResult{}, err
	}
	if doc == nil {
		return customizeResult{}, &ErrNotFound{Resource: "document", ID: documentID}
	}

	// Reuse lookup: repeated customization for the same (document, company)
	// pair returns the existing version unchanged.
	existing, err := e.store.FindVersionByCompany(ctx, documentID, company)
	if err != nil {
		return customizeResult{}, err
	}
	if existing != nil {
		log.Printf("[customize] reusing version %q for document %s", existing.Label, documentID)
		return customizeResult{version: existing}, nil
	}

	original, err := e.store.GetOriginalVersion(ctx, documentID)
	if err != nil {
		return customizeResult{}, err
	}
	if original == nil {
		return customizeResult{}, &ErrNotFound{Resource: "original version", ID: documentID}
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.generator.Generate(genCtx, original.Content, jobDescription, instructions)
	if err != nil {
		return customizeResult{}, &ErrCustomizationFailed{Kind: doc.Kind, Err: err}
	}
	if strings.TrimSpace(content) == "" {
		return customizeResult{}, &ErrCustomizationFailed{Kind: doc.Kind, Err: fmt.Errorf("generator returned empty content")}
	}

	version, created, err := e.store.CreateVersion(ctx, db.VersionCreateInput{
		DocumentID:    documentID,
		Label:         label,
		Content:       content,
		TargetCompany: company,
	})
	if err != nil {
		return customizeResult{}, err
	}
	if created {
		log.Printf("[customize] created version %q for document %s", label, documentID)
	} else {
		// Lost a cross-process race; the store returned the winner.
		log.Printf("[customize] concurrent request won for document %s and company %q, reusing", documentID, company)
	}
	return customizeResult{version: version, generated: created}, nil
}
