package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/versioning"
)

// memStore is an in-memory implementation of Store and UserStore for
// handler tests. It mirrors the real store's nil-on-missing convention and
// the one-customization-per-(document, company) uniqueness rule.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*db.User
	documents    map[uuid.UUID]*db.Document
	versions     map[uuid.UUID]*db.DocumentVersion
	applications map[uuid.UUID]*db.Application
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uuid.UUID]*db.User),
		documents:    make(map[uuid.UUID]*db.Document),
		versions:     make(map[uuid.UUID]*db.DocumentVersion),
		applications: make(map[uuid.UUID]*db.Application),
	}
}

// ---- UserStore ----

func (s *memStore) CreateUser(_ context.Context, name, email, phone string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &db.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *memStore) GetUser(_ context.Context, userID uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	u, _ := s.GetUserByEmail(context.Background(), email)
	return u != nil, nil
}

func (s *memStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.PasswordHash = passwordHash
		u.PasswordSet = true
	}
	return nil
}

// ---- Document store ----

func (s *memStore) CreateDocument(_ context.Context, ownerID uuid.UUID, kind db.DocumentKind, title, content string) (*db.Document, *db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := &db.Document{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		Title:     title,
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
	return doc, original, nil
}

func (s *memStore) ListDocuments(_ context.Context, ownerID uuid.UUID, kind db.DocumentKind) ([]db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Document
	for _, doc := range s.documents {
		if doc.OwnerID != ownerID {
			continue
		}
		if kind != "" && doc.Kind != kind {
			continue
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *memStore) DeleteDocument(_ context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.applications {
		ids := []uuid.UUID{app.ResumeVersionID}
		if app.CoverLetterVersionID != nil {
			ids = append(ids, *app.CoverLetterVersionID)
		}
		for _, id := range ids {
			if v, ok := s.versions[id]; ok && v.DocumentID == documentID {
				return db.ErrDocumentReferenced
			}
		}
	}
	for id, v := range s.versions {
		if v.DocumentID == documentID {
			delete(s.versions, id)
		}
	}
	delete(s.documents, documentID)
	return nil
}

func (s *memStore) GetDocument(_ context.Context, documentID uuid.UUID) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents[documentID], nil
}

func (s *memStore) GetOriginalVersion(_ context.Context, documentID uuid.UUID) (*db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions {
		if v.DocumentID == documentID && v.IsOriginal {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetVersionWithDocument(_ context.Context, versionID uuid.UUID) (*db.DocumentVersion, *db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return nil, nil, nil
	}
	return v, s.documents[v.DocumentID], nil
}

func (s *memStore) FindVersionByCompany(_ context.Context, documentID uuid.UUID, company string) (*db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByCompanyLocked(documentID, company), nil
}

func (s *memStore) findByCompanyLocked(documentID uuid.UUID, company string) *db.DocumentVersion {
	for _, v := range s.versions {
		if v.DocumentID == documentID && !v.IsOriginal && v.TargetCompany != nil && *v.TargetCompany == company {
			return v
		}
	}
	return nil
}

func (s *memStore) ListVersions(_ context.Context, documentID uuid.UUID) ([]db.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.DocumentVersion
	for _, v := range s.versions {
		if v.DocumentID == documentID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *memStore) CreateVersion(_ context.Context, input db.VersionCreateInput) (*db.DocumentVersion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *memStore) DeleteUnreferencedVersion(_ context.Context, versionID uuid.UUID) (bool, error) {
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

// ---- Application store ----

func (s *memStore) CreateApplication(_ context.Context, input db.ApplicationCreateInput) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *memStore) UpdateApplication(_ context.Context, ownerID, applicationID uuid.UUID, input db.ApplicationUpdateInput) (*db.Application, error) {
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

func (s *memStore) GetApplication(_ context.Context, ownerID, applicationID uuid.UUID) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok || app.OwnerID != ownerID {
		return nil, nil
	}
	return app, nil
}

func (s *memStore) ListApplications(_ context.Context, ownerID uuid.UUID, filters db.ApplicationFilters) ([]db.Application, int, error) {
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
		if filters.Company != "" && !strings.EqualFold(app.Company, filters.Company) {
			continue
		}
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (s *memStore) DeleteApplication(_ context.Context, ownerID, applicationID uuid.UUID) ([]uuid.UUID, error) {
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

func (s *memStore) SearchApplications(_ context.Context, ownerID uuid.UUID, query string, _, _ int) ([]db.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []db.Application
	for _, app := range s.applications {
		if app.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(app.Company), q) ||
			strings.Contains(strings.ToLower(app.Position), q) ||
			strings.Contains(strings.ToLower(app.Notes), q) {
			out = append(out, *app)
		}
	}
	return out, len(out), nil
}

func (s *memStore) GetApplicationStats(_ context.Context, ownerID uuid.UUID) (*db.ApplicationStats, error) {
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

// staticGenerator returns a deterministic customization for assertions.
type staticGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *staticGenerator) Generate(_ context.Context, source, _, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return "tailored: " + source, nil
}
