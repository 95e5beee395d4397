package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/moneymanager/internal/ledger"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail reports err and writes it with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.reporter.Report(r.Context(), err)
	writeJSON(w, mapError(err), errorResponse{Error: err.Error(), Kind: kindName(err)})
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrBackupFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrAccountInUse), errors.Is(err, ledger.ErrBuiltinProtection):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrReferential):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func kindName(err error) string {
	switch ledger.KindOf(err) {
	case ledger.ErrValidation:
		return "validation"
	case ledger.ErrReferential:
		return "referential"
	case ledger.ErrBuiltinProtection:
		return "builtin_protection"
	case ledger.ErrBackupFormat:
		return "backup_format"
	case ledger.ErrStorage:
		return "storage"
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ledger.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) string {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		return chi.URLParam(r, "id")
	}
	return id
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ledger.ErrValidation, key)
	}
	return n, nil
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ledger.ErrValidation, key)
	}
	return b, nil
}
