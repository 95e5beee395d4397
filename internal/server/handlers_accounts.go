package server

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

type createAccountRequest struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Type     ledger.AccountType `json:"type"`
	Currency string             `json:"currency"`
	Icon     string             `json:"icon,omitempty"`
	Color    string             `json:"color,omitempty"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	typ, err := ledger.ParseAccountType(string(req.Type))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	acct := &ledger.Account{
		ID:       req.ID,
		Name:     req.Name,
		Type:     typ,
		Currency: req.Currency,
		Icon:     req.Icon,
		Color:    req.Color,
	}
	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	filter := ledger.AccountFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		typ, err := ledger.ParseAccountType(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		filter.Type = typ
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		s.fail(w, r, err)
		return
	}

	accounts, err := s.store.ListAccounts(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var patch ledger.AccountPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if patch.Type != nil {
		typ, err := ledger.ParseAccountType(string(*patch.Type))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		patch.Type = &typ
	}
	acct, err := s.store.UpdateAccount(r.Context(), pathID(r), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// deleteAccount refuses accounts that transactions still reference unless
// cascade=true is given.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	cascade, err := queryBool(r, "cascade", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteAccount(r.Context(), pathID(r), cascade); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Formatted string          `json:"formatted"`
}

func (s *Server) recomputeBalance(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	balance, err := s.store.RecomputeBalance(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	acct, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID: id,
		Balance:   balance,
		Currency:  acct.Currency,
		Formatted: ledger.CurrencySymbol(acct.Currency) + money.FormatCents(balance),
	})
}

func (s *Server) checkBalances(w http.ResponseWriter, r *http.Request) {
	check, err := s.store.CheckBalances(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	out := make([]ledger.CurrencyDef, 0, len(ledger.Currencies))
	for _, code := range ledger.CurrencyCodes() {
		out = append(out, ledger.Currencies[code])
	}
	writeJSON(w, http.StatusOK, out)
}
