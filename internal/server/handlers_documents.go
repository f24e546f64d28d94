package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/server/middleware"
)

// ---- Document Handlers ----

// handleCreateDocument creates a document with its original version. Pasted
// HTML is reduced to clean text before storage.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	content, err := ingest.Normalize(req.Content)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to parse document content")
		return
	}
	if content == "" {
		s.errorResponse(w, http.StatusBadRequest, "Document content is empty after cleanup")
		return
	}

	doc, original, err := s.db.CreateDocument(r.Context(), userID, db.DocumentKind(req.Kind), req.Title, content)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"document": doc,
		"original": original,
	})
}

// handleListDocuments lists the caller's documents, optionally by kind.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	kind := db.DocumentKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "Unknown document kind")
		return
	}

	docs, err := s.db.ListDocuments(r.Context(), userID, kind)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []db.Document{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns one document with all of its versions.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}

	versions, err := s.db.ListVersions(r.Context(), doc.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if versions == nil {
		versions = []db.DocumentVersion{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"document": doc,
		"versions": versions,
	})
}

// handleDeleteDocument deletes a document and all of its versions. Documents
// referenced by an application cannot be deleted.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteDocument(r.Context(), doc.ID); err != nil {
		if errors.Is(err, db.ErrDocumentReferenced) {
			s.errorResponse(w, http.StatusConflict, "Document is referenced by one or more applications")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleGetVersion returns a single document version with its content.
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	versionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	version, doc, err := s.db.GetVersionWithDocument(r.Context(), versionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if version == nil {
		s.errorResponse(w, http.StatusNotFound, "Version not found")
		return
	}
	if doc.OwnerID != userID {
		s.errorResponse(w, http.StatusForbidden, "Version belongs to another user")
		return
	}

	s.jsonResponse(w, http.StatusOK, version)
}

// handleVersionPDF renders a version to PDF for download.
func (s *Server) handleVersionPDF(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	versionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	version, doc, err := s.db.GetVersionWithDocument(r.Context(), versionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if version == nil {
		s.errorResponse(w, http.StatusNotFound, "Version not found")
		return
	}
	if doc.OwnerID != userID {
		s.errorResponse(w, http.StatusForbidden, "Version belongs to another user")
		return
	}

	pdf, err := s.renderPDF(r.Context(), doc.Title+" ("+version.Label+")", version.Content)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "PDF rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": attachmentFilename(doc.Title),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// attachmentFilename turns a document title into a safe download filename.
// Quotes, backslashes, and control characters would break or split the
// Content-Disposition header, so they are dropped.
func attachmentFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/':
			return -1
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = "document"
	}
	return cleaned + ".pdf"
}

// ownedDocument loads the document from the path and verifies ownership,
// writing the error response itself on failure.
func (s *Server) ownedDocument(w http.ResponseWriter, r *http.Request) (uuid.UUID, *db.Document, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, nil, false
	}

	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid document ID")
		return uuid.Nil, nil, false
	}

	doc, err := s.db.GetDocument(r.Context(), documentID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return uuid.Nil, nil, false
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return uuid.Nil, nil, false
	}
	if doc.OwnerID != userID {
		s.errorResponse(w, http.StatusForbidden, "Document belongs to another user")
		return uuid.Nil, nil, false
	}

	return userID, doc, true
}
