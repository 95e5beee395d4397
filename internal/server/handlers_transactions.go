package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
)

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var txn ledger.Transaction
	if err := decodeJSON(r, &txn); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.AddTransaction(r.Context(), &txn); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// listTransactions filters by account_id (either side of a transfer), type,
// category_id and an inclusive from/to window. Dates may be RFC 3339 or
// YYYY-MM-DD; a bare to date covers the whole day.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
	}
	if t := q.Get("type"); t != "" {
		typ, err := ledger.ParseTransactionType(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		filter.Type = typ
	}

	var err error
	if filter.From, err = s.timeParam(q.Get("from"), false); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.To, err = s.timeParam(q.Get("to"), true); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		s.fail(w, r, err)
		return
	}

	txns, err := s.store.ListTransactions(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if txns == nil {
		txns = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) timeParam(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ledger.ErrValidation, v)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return d, nil
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.store.GetTransaction(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch ledger.TransactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	txn, err := s.store.UpdateTransaction(r.Context(), pathID(r), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
