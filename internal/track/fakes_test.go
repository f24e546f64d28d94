package track

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/versioning"
)

// fakeStore is an in-memory Store for unit tests. It enforces the same
// uniqueness rule as the real store: one customized version per
// (document, company).
type fakeStore struct {
	mu           sync.Mutex
	documents    map[uuid.UUID]*db.Document
	versions     map[uuid.UUID]*db.DocumentVersion
	applications map[uuid.UUID]*db.Application

	createVersionCalls int
	failCreateApp      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents:    make(map[uuid.UUID]*db.Document),
		versions:     make(map[uuid.UUID]*db.DocumentVersion),
		applications: make(map[uuid.UUID]*db.Application),
	}
}

// addDocument seeds a document together with its original version and
// returns both.
func (s *fakeStore) addDocument(ownerID uuid.UUID, kind db.DocumentKind, content string) (*db.Document, *db.DocumentVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &db.Document{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		Title:     "test " + string(kind),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	original := &db.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Label:      versioning.OriginalLabel,
		Content:    content,
		IsOriginal: true,
		CreatedAt:  time.Now(),
	}
	s.documents[doc.ID] = doc
	s.versions[original.ID] = original
	return doc, original
}

func (s *fakeStore) versionCount(documentID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.versions {
		if v.DocumentID == documentID {
			n++
		}
	}
	return n
}

func (s *fakeStore) GetDocument(_ context.Context, documentID uuid.UUID) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents[documentID], nil
}

func (s *fakeStore) GetOriginalVersion(_ context.Context, documentID uuid.UUID) (*db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions {
		if v.DocumentID == documentID && v.IsOriginal {
			return v, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetVersionWithDocument(_ context.Context, versionID uuid.UUID) (*db.DocumentVersion, *db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return nil, nil, nil
	}
	return v, s.documents[v.DocumentID], nil
}

func (s *fakeStore) FindVersionByCompany(_ context.Context, documentID uuid.UUID, company string) (*db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByCompanyLocked(documentID, company), nil
}

func (s *fakeStore) findByCompanyLocked(documentID uuid.UUID, company string) *db.DocumentVersion {
	for _, v := range s.versions {
		if v.DocumentID == documentID && !v.IsOriginal && v.TargetCompany != nil && *v.TargetCompany == company {
			return v
		}
	}
	return nil
}

func (s *fakeStore) CreateVersion(_ context.Context, input db.VersionCreateInput) (*db.DocumentVersion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createVersionCalls++

	// Mirror the unique constraint: a concurrent winner is returned as-is.
	if existing := s.findByCompanyLocked(input.DocumentID, input.TargetCompany); existing != nil {
		return existing, false, nil
	}

	company := input.TargetCompany
	v := &db.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    input.DocumentID,
		Label:         input.Label,
		Content:       input.Content,
		TargetCompany: &company,
		CreatedAt:     time.Now(),
	}
	s.versions[v.ID] = v
	return v, true, nil
}

func (s *fakeStore) DeleteUnreferencedVersion(_ context.Context, versionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.IsOriginal {
		return false, nil
	}
	for _, app := range s.applications {
		if app.ResumeVersionID == versionID || (app.CoverLetterVersionID != nil && *app.CoverLetterVersionID == versionID) {
			return false, nil
		}
	}
	delete(s.versions, versionID)
	return true, nil
}

func (s *fakeStore) CreateApplication(_ context.Context, input db.ApplicationCreateInput) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateApp != nil {
		return nil, s.failCreateApp
	}

	status := input.Status
	if status == "" {
		status = db.StatusApplied
	}
	app := &db.Application{
		ID:                   uuid.New(),
		OwnerID:              input.OwnerID,
		Company:              input.Company,
		Position:             input.Position,
		JobDescription:       input.JobDescription,
		Instructions:         input.Instructions,
		ResumeVersionID:      input.ResumeVersionID,
		CoverLetterVersionID: input.CoverLetterVersionID,
		CustomizedAt:         input.CustomizedAt,
		Status:               status,
		Notes:                input.Notes,
		AppliedDate:          input.AppliedDate,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
		ResumeVersion:        s.versions[input.ResumeVersionID],
	}
	if input.CoverLetterVersionID != nil {
		app.CoverLetterVersion = s.versions[*input.CoverLetterVersionID]
	}
	s.applications[app.ID] = app
	return app, nil
}

func (s *fakeStore) UpdateApplication(_ context.Context, ownerID, applicationID uuid.UUID, input db.ApplicationUpdateInput) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok || app.OwnerID != ownerID {
		return nil, nil
	}
	if input.Company != nil {
		app.Company = *input.Company
	}
	if input.Position != nil {
		app.Position = *input.Position
	}
	if input.Status != nil {
		app.Status = *input.Status
	}
	if input.Notes != nil {
		app.Notes = *input.Notes
	}
	if input.ResumeVersionID != nil {
		app.ResumeVersionID = *input.ResumeVersionID
		app.ResumeVersion = s.versions[*input.ResumeVersionID]
	}
	if input.CoverLetterVersionID != nil {
		app.CoverLetterVersionID = input.CoverLetterVersionID
		app.CoverLetterVersion = s.versions[*input.CoverLetterVersionID]
	}
	app.UpdatedAt = time.Now()
	return app, nil
}

func (s *fakeStore) GetApplication(_ context.Context, ownerID, applicationID uuid.UUID) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok || app.OwnerID != ownerID {
		return nil, nil
	}
	return app, nil
}

func (s *fakeStore) ListApplications(_ context.Context, ownerID uuid.UUID, filters db.ApplicationFilters) ([]db.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Application
	for _, app := range s.applications {
		if app.OwnerID != ownerID {
			continue
		}
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (s *fakeStore) DeleteApplication(_ context.Context, ownerID, applicationID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok || app.OwnerID != ownerID {
		return nil, nil
	}
	delete(s.applications, applicationID)

	deleted := []uuid.UUID{}
	candidates := []uuid.UUID{app.ResumeVersionID}
	if app.CoverLetterVersionID != nil {
		candidates = append(candidates, *app.CoverLetterVersionID)
	}
	for _, id := range candidates {
		v, ok := s.versions[id]
		if !ok || v.IsOriginal {
			continue
		}
		referenced := false
		for _, other := range s.applications {
			if other.ResumeVersionID == id || (other.CoverLetterVersionID != nil && *other.CoverLetterVersionID == id) {
				referenced = true
				break
			}
		}
		if !referenced {
			delete(s.versions, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (s *fakeStore) SearchApplications(_ context.Context, ownerID uuid.UUID, query string, _, _ int) ([]db.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []db.Application
	for _, app := range s.applications {
		if app.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(app.Company), q) || strings.Contains(strings.ToLower(app.Position), q) {
			out = append(out, *app)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) GetApplicationStats(_ context.Context, ownerID uuid.UUID) (*db.ApplicationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &db.ApplicationStats{ByStatus: make(map[string]int)}
	for _, app := range s.applications {
		if app.OwnerID != ownerID {
			continue
		}
		stats.Total++
		stats.ByStatus[app.Status]++
	}
	return stats, nil
}

// fakeGenerator counts calls and can be told to fail or block. failOn fails
// only calls whose source matches, so one slot of a binding can fail while
// another succeeds.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	fail    error
	failOn  string
	block   chan struct{}
	content string
}

func (g *fakeGenerator) Generate(ctx context.Context, source, jobDescription, instructions string) (string, error) {
	g.mu.Lock()
	g.calls++
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.fail != nil {
		return "", g.fail
	}
	if g.failOn != "" && source == g.failOn {
		return "", errGeneratorDown
	}
	if g.content != "" {
		return g.content, nil
	}
	return "customized: " + source, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var errGeneratorDown = errors.New("model unavailable")
