package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"pages": {}})
		return
	}
	pages, err := s.cache.Pages(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list cached pages failed")
		InternalError(w, r, ErrCodeCacheError, "failed to list cached pages")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"pages": pages})
}

func (s *Server) handleGetCache(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if s.cache == nil {
		NotFoundError(w, r, "no cached decision for page "+page)
		return
	}
	d, ok := s.cache.Read(r.Context(), page)
	if !ok {
		NotFoundError(w, r, "no cached decision for page "+page)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if s.cache != nil {
		if err := s.cache.Clear(r.Context(), page); err != nil {
			s.logger.Error().Err(err).Str("page", page).Msg("clear cache failed")
			InternalError(w, r, ErrCodeCacheError, "failed to clear cache")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
