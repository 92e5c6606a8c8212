package web

import (
	"net/http"

	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/library"
)

type entryView struct {
	Word     string `json:"word"`
	Reading  string `json:"reading"`
	Meaning  string `json:"meaning"`
	Level    string `json:"level"`
	Category string `json:"category"`
}

type libraryResponse struct {
	Count   int         `json:"count"`
	Entries []entryView `json:"entries"`
}

type libraryQuery struct {
	Level    string `json:"level"`
	Category string `json:"category"`
	Search   string `json:"q"`
}

// filter runs q against the current library.
func (s *Server) filter(q libraryQuery) ([]domain.JLPTEntry, error) {
	var level domain.JLPTLevel
	if q.Level != "" {
		var err error
		if level, err = domain.ParseLevel(q.Level); err != nil {
			return nil, err
		}
	}
	return s.library().Filter(level, q.Category, q.Search), nil
}

func (s *Server) library() *library.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lib
}

func (s *Server) handleGetLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		entries, err := s.filter(libraryQuery{
			Level:    query.Get("level"),
			Category: query.Get("category"),
			Search:   query.Get("q"),
		})
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		resp := libraryResponse{Count: len(entries), Entries: make([]entryView, 0, len(entries))}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, entryView{
				Word:     e.Word,
				Reading:  e.Reading,
				Meaning:  e.Meaning,
				Level:    string(e.Level),
				Category: e.Category,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleGetCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var level domain.JLPTLevel
		if raw := r.URL.Query().Get("level"); raw != "" {
			var err error
			if level, err = domain.ParseLevel(raw); err != nil {
				badRequest(w, err.Error())
				return
			}
		}
		categories := s.library().Categories(level)
		if categories == nil {
			categories = []string{}
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

// handleImportLibrary copies the matching library entries into the
// personal word list.
func (s *Server) handleImportLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q libraryQuery
		if err := decode(r, &q); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		entries, err := s.filter(q)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		added, err := s.deps.Catalog.ImportEntries(r.Context(), entries)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"matched": len(entries), "added": added})
	}
}

// handleSyncLibrary triggers a manual sync of the library source and swaps
// in the freshly parsed library.
func (s *Server) handleSyncLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Reload == nil {
			writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "library sync is not configured"})
			return
		}

		lib, err := s.deps.Reload(r.Context()) // Run in the foreground to make the caller wait
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.mu.Lock()
		s.lib = lib
		s.mu.Unlock()

		s.logger.Info("Library synced", "words", lib.Len())
		writeJSON(w, http.StatusOK, map[string]int{"words": lib.Len()})
	}
}
