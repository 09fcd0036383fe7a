package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/noto/internal/indexer"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", query.Query),
		zap.String("mode", string(query.Mode)),
		zap.Int("top_k", query.TopK))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Rebuild(r.Context())
	if err != nil {
		if errors.Is(err, indexer.ErrBuildInProgress) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	idx := s.holder.Load()
	resp := map[string]interface{}{
		"entries":    idx.Len(),
		"dimensions": idx.Dimensions(),
		"notebooks":  len(idx.Notebooks()),
	}
	s.mu.Lock()
	if s.lastBuild != nil {
		resp["last_build"] = s.lastBuild
	}
	s.mu.Unlock()

	resp["config"] = map[string]interface{}{
		"backup_root":          s.config.Backup.Root,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"database_path":        s.config.Storage.DatabasePath,
		"matrix_path":          s.config.Storage.MatrixPath,
		"bleve_index_path":     s.config.Storage.BleveIndexPath,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.MatrixPath,
		s.config.Storage.BleveIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotebooks(w http.ResponseWriter, r *http.Request) {
	idx := s.holder.Load()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"notebooks": idx.Notebooks(),
	})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	notebook := pathParam(r, "notebook")
	idx := s.holder.Load()
	sections := idx.Sections(notebook)
	if len(sections) == 0 {
		s.respondError(w, http.StatusNotFound, "notebook not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"notebook": notebook,
		"sections": sections,
	})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	notebook := pathParam(r, "notebook")
	section := pathParam(r, "section")
	idx := s.holder.Load()
	pages := idx.Pages(notebook, section)
	if len(pages) == 0 {
		s.respondError(w, http.StatusNotFound, "section not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"notebook": notebook,
		"section":  section,
		"pages":    pages,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathParam returns the URL-decoded route parameter. Notebook and section
// names routinely contain spaces.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
