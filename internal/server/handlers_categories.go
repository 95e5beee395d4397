package server

import (
	"net/http"

	"github.com/simonvc/moneymanager/internal/ledger"
)

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var cat ledger.Category
	if err := decodeJSON(r, &cat); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.CreateCategory(r.Context(), &cat); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	filter := ledger.CategoryFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		typ, err := ledger.ParseTransactionType(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		filter.Type = typ
	}
	cats, err := s.store.ListCategories(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cats == nil {
		cats = []ledger.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.GetCategory(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var patch ledger.CategoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	cat, err := s.store.UpdateCategory(r.Context(), pathID(r), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
