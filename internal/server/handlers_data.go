package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/simonvc/moneymanager/internal/backup"
	"github.com/simonvc/moneymanager/internal/importer"
	"github.com/simonvc/moneymanager/internal/ledger"
)

const maxUploadBytes = 32 << 20

// importLegacy reads a legacy TXT export from the request body into the
// account named by account_id. dedup defaults to true.
func (s *Server) importLegacy(w http.ResponseWriter, r *http.Request) {
	dedup, err := queryBool(r, "dedup", true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := importer.Options{AccountID: r.URL.Query().Get("account_id"), Dedup: dedup}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	res, err := s.importer.Import(r.Context(), body, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ImportFinished(res.Imported, res.Duplicates, res.Rejected)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) checkLegacy(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	n, err := s.importer.CountDuplicates(r.Context(), body, r.URL.Query().Get("account_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"duplicates": n})
}

func (s *Server) exportLegacy(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.importer.Export(r.Context(), &buf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", importer.FileName(s.now())))
	w.Header().Set("X-Record-Count", fmt.Sprint(n))
	w.Write(buf.Bytes())
}

func (s *Server) backup(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	now := s.now()
	if err := backup.Encode(&buf, ds, now); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(now)))
	w.Write(buf.Bytes())
}

type restoreResponse struct {
	Accounts     int `json:"accounts"`
	Categories   int `json:"categories"`
	Transactions int `json:"transactions"`
}

// restore replaces the whole ledger with a backup document. The document is
// fully decoded and checked before anything is cleared.
func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	ds, err := backup.Decode(http.MaxBytesReader(w, r.Body, maxUploadBytes), s.loc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.RestoreFromBackup(r.Context(), ds); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restoreResponse{
		Accounts:     len(ds.Accounts),
		Categories:   len(ds.Categories),
		Transactions: len(ds.Transactions),
	})
}

// clear deletes everything. With seed=true the default account and builtin
// categories are recreated afterwards.
func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	reseed, err := queryBool(r, "seed", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	currency := r.URL.Query().Get("currency")
	if reseed && currency != "" && !ledger.ValidCurrency(currency) {
		s.fail(w, r, fmt.Errorf("%w: %q", ledger.ErrInvalidCurrency, currency))
		return
	}
	if err := s.store.ClearAll(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	if reseed {
		if _, err := s.store.Seed(r.Context(), currency); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
