package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/server/middleware"
	"github.com/jonathan/job-tracker/internal/track"
)

// ---- Application Handlers ----

// handleCreateApplication creates an application, optionally customizing the
// selected documents for the target company first.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	input := track.CreateApplicationInput{
		Company:        req.Company,
		Position:       req.Position,
		JobDescription: req.JobDescription,
		Instructions:   req.Instructions,
		Resume:         track.Selection{DocumentID: req.Resume.DocumentID, VersionID: req.Resume.VersionID},
		Customize:      req.Customize,
		Status:         req.Status,
		Notes:          req.Notes,
		AppliedDate:    req.AppliedDate,
	}
	if req.CoverLetter != nil {
		input.CoverLetter = &track.Selection{
			DocumentID: req.CoverLetter.DocumentID,
			VersionID:  req.CoverLetter.VersionID,
		}
	}

	app, err := s.binder.CreateApplication(r.Context(), userID, input)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, app)
}

// handleGetApplication returns one application with resolved versions.
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	userID, applicationID, ok := s.applicationPath(w, r)
	if !ok {
		return
	}

	app, err := s.binder.GetApplication(r.Context(), userID, applicationID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, app)
}

// handleListApplications lists the caller's applications with optional
// status/company filters and pagination.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	filters := db.ApplicationFilters{
		Status:  query.Get("status"),
		Company: query.Get("company"),
		Page:    queryInt(query.Get("page"), 1),
		PerPage: queryInt(query.Get("per_page"), 20),
	}

	apps, total, err := s.binder.ListApplications(r.Context(), userID, filters)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}

	s.jsonResponse(w, http.StatusOK, ListResponse[db.Application]{
		Items:   apps,
		Total:   total,
		Page:    filters.Page,
		PerPage: filters.PerPage,
	})
}

// handleUpdateApplication applies a partial update to an application.
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	userID, applicationID, ok := s.applicationPath(w, r)
	if !ok {
		return
	}

	var req UpdateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := track.UpdateApplicationInput{
		Company:        req.Company,
		Position:       req.Position,
		JobDescription: req.JobDescription,
		Status:         req.Status,
		Notes:          req.Notes,
		AppliedDate:    req.AppliedDate,
	}
	if req.Resume != nil {
		input.Resume = &track.Selection{DocumentID: req.Resume.DocumentID, VersionID: req.Resume.VersionID}
	}
	if req.CoverLetter != nil {
		input.CoverLetter = &track.Selection{DocumentID: req.CoverLetter.DocumentID, VersionID: req.CoverLetter.VersionID}
	}

	app, err := s.binder.UpdateApplication(r.Context(), userID, applicationID, input)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, app)
}

// handleDeleteApplication deletes an application and reports which
// customized versions were garbage collected with it.
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	userID, applicationID, ok := s.applicationPath(w, r)
	if !ok {
		return
	}

	cleaned, err := s.binder.DeleteApplication(r.Context(), userID, applicationID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, DeleteApplicationResponse{
		Deleted:         true,
		CleanedVersions: cleaned,
	})
}

// handleSearchApplications searches across company, position, job
// description, and notes.
func (s *Server) handleSearchApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	page := queryInt(query.Get("page"), 1)
	perPage := queryInt(query.Get("per_page"), 20)

	apps, total, err := s.binder.SearchApplications(r.Context(), userID, query.Get("q"), page, perPage)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}

	s.jsonResponse(w, http.StatusOK, ListResponse[db.Application]{
		Items:   apps,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// handleApplicationStats returns per-status counts for the caller.
func (s *Server) handleApplicationStats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := s.binder.ApplicationStats(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, stats)
}

// applicationPath extracts the caller and the application ID from the
// request, writing the error response itself on failure.
func (s *Server) applicationPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	applicationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, applicationID, true
}

// queryInt parses a positive integer query parameter with a fallback.
func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
