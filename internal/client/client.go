package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/simonvc/moneymanager/internal/importer"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/stats"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a failed request. It unwraps to the ledger error kind the
// server reported, so errors.Is(err, ledger.ErrValidation) works across the
// wire.
type APIError struct {
	Status  int
	Message string
	Kind    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "validation":
		return ledger.ErrValidation
	case "referential":
		return ledger.ErrReferential
	case "builtin_protection":
		return ledger.ErrBuiltinProtection
	case "backup_format":
		return ledger.ErrBackupFormat
	case "storage":
		return ledger.ErrStorage
	}
	return nil
}

// Accounts

func (c *Client) CreateAccount(ctx context.Context, acct *ledger.Account) (*ledger.Account, error) {
	body := map[string]any{
		"id":       acct.ID,
		"name":     acct.Name,
		"type":     acct.Type,
		"currency": acct.Currency,
		"icon":     acct.Icon,
		"color":    acct.Color,
	}
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, accountType ledger.AccountType) ([]ledger.Account, error) {
	params := url.Values{}
	if accountType != "" {
		params.Set("type", string(accountType))
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, patch ledger.AccountPatch) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.patch(ctx, "/api/v1/accounts/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string, cascade bool) error {
	path := "/api/v1/accounts/" + url.PathEscape(id)
	if cascade {
		path += "?cascade=true"
	}
	return c.del(ctx, path)
}

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

func (c *Client) RecomputeBalance(ctx context.Context, id string) (*BalanceResponse, error) {
	var result BalanceResponse
	if err := c.post(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/recompute", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CheckBalances(ctx context.Context) (*ledger.BalanceCheck, error) {
	var result ledger.BalanceCheck
	if err := c.get(ctx, "/api/v1/balances/check", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Categories

func (c *Client) CreateCategory(ctx context.Context, cat *ledger.Category) (*ledger.Category, error) {
	var result ledger.Category
	if err := c.post(ctx, "/api/v1/categories", cat, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCategories(ctx context.Context, typ ledger.TransactionType) ([]ledger.Category, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", string(typ))
	}
	var result []ledger.Category
	if err := c.get(ctx, "/api/v1/categories?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, patch ledger.CategoryPatch) (*ledger.Category, error) {
	var result ledger.Category
	if err := c.patch(ctx, "/api/v1/categories/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/categories/"+url.PathEscape(id))
}

// Transactions

func (c *Client) AddTransaction(ctx context.Context, txn *ledger.Transaction) (*ledger.Transaction, error) {
	body := map[string]any{
		"id":            txn.ID,
		"type":          txn.Type,
		"amount":        txn.Amount.String(),
		"account_id":    txn.AccountID,
		"to_account_id": txn.ToAccountID,
		"category_id":   txn.CategoryID,
		"note":          txn.Note,
		"tags":          txn.Tags,
	}
	if !txn.Date.IsZero() {
		body["date"] = txn.Date.Format(time.RFC3339Nano)
	}
	var result ledger.Transaction
	if err := c.post(ctx, "/api/v1/transactions", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	params := url.Values{}
	if filter.AccountID != "" {
		params.Set("account_id", filter.AccountID)
	}
	if filter.Type != "" {
		params.Set("type", string(filter.Type))
	}
	if filter.CategoryID != "" {
		params.Set("category_id", filter.CategoryID)
	}
	if !filter.From.IsZero() {
		params.Set("from", filter.From.Format(time.RFC3339Nano))
	}
	if !filter.To.IsZero() {
		params.Set("to", filter.To.Format(time.RFC3339Nano))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", strconv.Itoa(filter.Offset))
	}
	var result []ledger.Transaction
	if err := c.get(ctx, "/api/v1/transactions?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.get(ctx, "/api/v1/transactions/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, patch ledger.TransactionPatch) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.patch(ctx, "/api/v1/transactions/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/transactions/"+url.PathEscape(id))
}

// Stats

func statsParams(dim stats.Dimension, date time.Time, shift int) url.Values {
	params := url.Values{}
	params.Set("dimension", string(dim))
	if !date.IsZero() {
		params.Set("date", date.Format(time.RFC3339))
	}
	if shift != 0 {
		params.Set("shift", strconv.Itoa(shift))
	}
	return params
}

func (c *Client) Stats(ctx context.Context, dim stats.Dimension, date time.Time, shift int) (*stats.Summary, error) {
	var result stats.Summary
	if err := c.get(ctx, "/api/v1/stats?"+statsParams(dim, date, shift).Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatchStats calls fn with the current summary and again after every change
// until ctx is cancelled or the server closes the stream. It returns nil
// when ctx ends.
func (c *Client) WatchStats(ctx context.Context, dim stats.Dimension, date time.Time, fn func(*stats.Summary)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/stats/watch?"+statsParams(dim, date, 0).Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// no overall timeout on a stream
	streaming := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streaming.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 8<<20)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var sum stats.Summary
		if err := json.Unmarshal([]byte(data), &sum); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		fn(&sum)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// Data management

func (c *Client) ImportLegacy(ctx context.Context, r io.Reader, accountID string, dedup bool) (*importer.Result, error) {
	params := url.Values{}
	params.Set("account_id", accountID)
	params.Set("dedup", strconv.FormatBool(dedup))
	var result importer.Result
	if err := c.postRaw(ctx, "/api/v1/import/legacy?"+params.Encode(), "text/plain; charset=utf-8", r, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CheckLegacy(ctx context.Context, r io.Reader, accountID string) (int, error) {
	var result struct {
		Duplicates int `json:"duplicates"`
	}
	path := "/api/v1/import/legacy/check?account_id=" + url.QueryEscape(accountID)
	if err := c.postRaw(ctx, path, "text/plain; charset=utf-8", r, &result); err != nil {
		return 0, err
	}
	return result.Duplicates, nil
}

func (c *Client) ExportLegacy(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/v1/export/legacy", w)
}

func (c *Client) Backup(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/v1/backup", w)
}

type RestoreResult struct {
	Accounts     int `json:"accounts"`
	Categories   int `json:"categories"`
	Transactions int `json:"transactions"`
}

func (c *Client) Restore(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	var result RestoreResult
	if err := c.postRaw(ctx, "/api/v1/restore", "application/json", r, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Clear(ctx context.Context, seed bool, currency string) error {
	params := url.Values{}
	if seed {
		params.Set("seed", "true")
		if currency != "" {
			params.Set("currency", currency)
		}
	}
	return c.post(ctx, "/api/v1/clear?"+params.Encode(), nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil)
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, nil)
}

func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.postRawMethod(ctx, http.MethodPatch, path, "application/json", bytes.NewReader(data), result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	return c.postRawMethod(ctx, http.MethodPost, path, "application/json", rd, result)
}

func (c *Client) postRaw(ctx context.Context, path, contentType string, body io.Reader, result any) error {
	return c.postRawMethod(ctx, http.MethodPost, path, contentType, body, result)
}

func (c *Client) postRawMethod(ctx context.Context, method, path, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	return c.doRequest(req, result)
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func readAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var apiErr apiError
	if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error, Kind: apiErr.Kind}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// IsKind reports whether err came back from the server with the given
// ledger kind.
func IsKind(err error, kind error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && errors.Is(apiErr, kind)
}
