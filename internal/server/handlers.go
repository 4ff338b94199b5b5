package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/chikai/internal/embedding"
	"github.com/hyperjump/chikai/internal/models"
	"github.com/hyperjump/chikai/internal/vector"
	"go.uber.org/zap"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Chikai vector search API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"detail": err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"collections_count": len(cols),
	})
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	id, err := s.documents.Add(r.Context(), &input)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "added"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "validation", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	page, err := s.documents.List(r.Context(), q.Get("collection"), q.Get("offset"), limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.documents.Delete(r.Context(), r.URL.Query().Get("collection"), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"collections": cols})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var input models.CollectionCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := input.Validate(defaultVectorSize, defaultDistance); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if err := s.collections.Create(r.Context(), &input); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"name": input.Name, "status": "created"})
}

func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	detail, err := s.collections.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.collections.Delete(r.Context(), name); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})
}

// Defaults applied when a create-collection request omits fields.
const (
	defaultVectorSize = 384
	defaultDistance   = "cosine"
)

// respondServiceError maps facade errors onto the HTTP error taxonomy:
// validation 400, not found 404, already exists 409, upstream unavailable 503,
// anything else 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, vector.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, vector.ErrAlreadyExists):
		s.respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, vector.ErrUnavailable), errors.Is(err, embedding.ErrModelUnavailable):
		s.logger.Error("upstream unavailable", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "upstream_unavailable", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, kind, detail string) {
	s.respondJSON(w, status, map[string]string{"error": kind, "detail": detail})
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}
