package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/live"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustAccount(t *testing.T, s *Store, name string) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{Name: name, Type: ledger.AccountBank, Currency: "CNY"}
	if err := s.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return acct
}

func mustCategory(t *testing.T, s *Store, name string, typ ledger.TransactionType) *ledger.Category {
	t.Helper()
	cat := &ledger.Category{Name: name, Type: typ}
	if err := s.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return cat
}

func mustAdd(t *testing.T, s *Store, txn ledger.Transaction) *ledger.Transaction {
	t.Helper()
	if err := s.AddTransaction(context.Background(), &txn); err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return &txn
}

func balanceOf(t *testing.T, s *Store, id string) decimal.Decimal {
	t.Helper()
	acct, err := s.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return acct.Balance
}

func assertBalance(t *testing.T, s *Store, id, want string) {
	t.Helper()
	if got := balanceOf(t, s, id); !got.Equal(dec(want)) {
		t.Errorf("balance of %s = %s, want %s", id, got, want)
	}
}

func TestTransactionBalanceEffects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	salary := mustCategory(t, s, "salary", ledger.Income)
	food := mustCategory(t, s, "food", ledger.Expense)

	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("100"), AccountID: a.ID, CategoryID: salary.ID})
	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("50"), AccountID: b.ID, CategoryID: salary.ID})

	t.Run("expense lowers the balance", func(t *testing.T) {
		mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("10.5"), AccountID: a.ID, CategoryID: food.ID})
		assertBalance(t, s, a.ID, "89.50")
	})

	t.Run("transfer moves money between accounts", func(t *testing.T) {
		tr := mustAdd(t, s, ledger.Transaction{Type: ledger.Transfer, Amount: dec("20"), AccountID: a.ID, ToAccountID: b.ID})
		assertBalance(t, s, a.ID, "69.50")
		assertBalance(t, s, b.ID, "70.00")

		if err := s.DeleteTransaction(ctx, tr.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		assertBalance(t, s, a.ID, "89.50")
		assertBalance(t, s, b.ID, "50.00")
	})

	t.Run("decimal sums stay exact", func(t *testing.T) {
		c := mustAccount(t, s, "C")
		mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("0.1"), AccountID: c.ID, CategoryID: salary.ID})
		mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("0.2"), AccountID: c.ID, CategoryID: salary.ID})
		assertBalance(t, s, c.ID, "0.3")
	})
}

func TestUpdateTransactionMovesEffect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	food := mustCategory(t, s, "food", ledger.Expense)

	txn := mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("30"), AccountID: a.ID, CategoryID: food.ID})
	assertBalance(t, s, a.ID, "-30")

	amount, acct := dec("12.25"), b.ID
	updated, err := s.UpdateTransaction(ctx, txn.ID, ledger.TransactionPatch{Amount: &amount, AccountID: &acct})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AccountID != b.ID || !updated.Amount.Equal(amount) {
		t.Fatalf("unexpected update result %+v", updated)
	}
	assertBalance(t, s, a.ID, "0")
	assertBalance(t, s, b.ID, "-12.25")

	typ, to := ledger.Transfer, a.ID
	if _, err := s.UpdateTransaction(ctx, txn.ID, ledger.TransactionPatch{Type: &typ, ToAccountID: &to}); err != nil {
		t.Fatalf("update to transfer: %v", err)
	}
	assertBalance(t, s, a.ID, "12.25")
	assertBalance(t, s, b.ID, "-12.25")

	got, err := s.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryID != "" {
		t.Errorf("transfer kept expense category %q", got.CategoryID)
	}
}

func TestRejectedMutationsWriteNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	food := mustCategory(t, s, "food", ledger.Expense)
	salary := mustCategory(t, s, "salary", ledger.Income)

	tests := []struct {
		name string
		txn  ledger.Transaction
		kind error
		want error
	}{
		{"zero amount", ledger.Transaction{Type: ledger.Expense, Amount: decimal.Zero, AccountID: a.ID, CategoryID: food.ID}, ledger.ErrValidation, ledger.ErrInvalidAmount},
		{"self transfer", ledger.Transaction{Type: ledger.Transfer, Amount: dec("1"), AccountID: a.ID, ToAccountID: a.ID}, ledger.ErrValidation, ledger.ErrSelfTransfer},
		{"missing category", ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID}, ledger.ErrValidation, ledger.ErrMissingCategory},
		{"unknown account", ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: "nope", CategoryID: food.ID}, ledger.ErrReferential, ledger.ErrAccountNotFound},
		{"unknown destination", ledger.Transaction{Type: ledger.Transfer, Amount: dec("1"), AccountID: a.ID, ToAccountID: "nope"}, ledger.ErrReferential, ledger.ErrAccountNotFound},
		{"unknown category", ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID, CategoryID: "nope"}, ledger.ErrReferential, ledger.ErrCategoryNotFound},
		{"category of other type", ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID, CategoryID: salary.ID}, ledger.ErrValidation, ledger.ErrCategoryTypeMismatch},
		{"transfer with income category", ledger.Transaction{Type: ledger.Transfer, Amount: dec("1"), AccountID: a.ID, ToAccountID: b.ID, CategoryID: salary.ID}, ledger.ErrValidation, ledger.ErrCategoryTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := tt.txn
			err := s.AddTransaction(ctx, &txn)
			if !errors.Is(err, tt.want) || !errors.Is(err, tt.kind) {
				t.Fatalf("got %v, want %v (%v)", err, tt.want, tt.kind)
			}
		})
	}

	txns, err := s.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 0 {
		t.Fatalf("rejected adds left %d rows", len(txns))
	}
	assertBalance(t, s, a.ID, "0")
	assertBalance(t, s, b.ID, "0")
}

func TestIncrementalBalancesMatchRecompute(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accts := []*ledger.Account{mustAccount(t, s, "A"), mustAccount(t, s, "B"), mustAccount(t, s, "C")}
	cats := map[ledger.TransactionType]string{
		ledger.Income:  mustCategory(t, s, "in", ledger.Income).ID,
		ledger.Expense: mustCategory(t, s, "out", ledger.Expense).ID,
	}

	r := rand.New(rand.NewPCG(1, 2))
	var ids []string
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		switch op := r.IntN(10); {
		case op < 6 || len(ids) == 0:
			typ := ledger.AllTransactionTypes[r.IntN(3)]
			from := accts[r.IntN(3)]
			txn := ledger.Transaction{
				Type:      typ,
				Amount:    decimal.New(int64(r.IntN(100000)+1), -2),
				AccountID: from.ID,
				Date:      base.Add(time.Duration(i) * time.Hour),
			}
			if typ == ledger.Transfer {
				txn.ToAccountID = accts[(r.IntN(2)+1+indexOf(accts, from))%3].ID
			} else {
				txn.CategoryID = cats[typ]
			}
			ids = append(ids, mustAdd(t, s, txn).ID)
		case op < 8:
			amt := decimal.New(int64(r.IntN(5000)+1), -2)
			if _, err := s.UpdateTransaction(ctx, ids[r.IntN(len(ids))], ledger.TransactionPatch{Amount: &amt}); err != nil {
				t.Fatalf("update: %v", err)
			}
		default:
			k := r.IntN(len(ids))
			if err := s.DeleteTransaction(ctx, ids[k]); err != nil {
				t.Fatalf("delete: %v", err)
			}
			ids = append(ids[:k], ids[k+1:]...)
		}
	}

	for _, a := range accts {
		incremental := balanceOf(t, s, a.ID)
		recomputed, err := s.RecomputeBalance(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !incremental.Equal(recomputed) {
			t.Errorf("account %s: incremental %s, recomputed %s", a.Name, incremental, recomputed)
		}
	}

	check, err := s.CheckBalances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !check.Consistent {
		t.Errorf("balance check reported drift: %+v", check.Lines)
	}
}

func indexOf(accts []*ledger.Account, a *ledger.Account) int {
	for i := range accts {
		if accts[i] == a {
			return i
		}
	}
	return -1
}

func TestCategoryDeletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Seed(ctx, ""); err != nil {
		t.Fatal(err)
	}

	builtins, err := s.ListCategories(ctx, ledger.CategoryFilter{Type: ledger.Expense})
	if err != nil || len(builtins) == 0 {
		t.Fatalf("list categories: %v (%d)", err, len(builtins))
	}

	t.Run("builtin is protected", func(t *testing.T) {
		err := s.DeleteCategory(ctx, builtins[0].ID)
		if !errors.Is(err, ledger.ErrBuiltinCategory) || !errors.Is(err, ledger.ErrBuiltinProtection) {
			t.Fatalf("got %v", err)
		}
		if _, err := s.GetCategory(ctx, builtins[0].ID); err != nil {
			t.Fatalf("builtin category gone: %v", err)
		}
	})

	t.Run("user category leaves references dangling", func(t *testing.T) {
		a := mustAccount(t, s, "A")
		cat := mustCategory(t, s, "hobby", ledger.Expense)
		txn := mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("5"), AccountID: a.ID, CategoryID: cat.ID})

		if err := s.DeleteCategory(ctx, cat.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		got, err := s.GetTransaction(ctx, txn.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.CategoryID != cat.ID {
			t.Errorf("category reference changed to %q", got.CategoryID)
		}
		if _, err := s.GetCategory(ctx, cat.ID); !errors.Is(err, ledger.ErrCategoryNotFound) {
			t.Errorf("got %v", err)
		}
		// an orphaned expense can still be deleted and reversed
		if err := s.DeleteTransaction(ctx, txn.ID); err != nil {
			t.Fatalf("delete orphan: %v", err)
		}
		assertBalance(t, s, a.ID, "0")
	})
}

func TestDeleteAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	salary := mustCategory(t, s, "salary", ledger.Income)

	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("100"), AccountID: a.ID, CategoryID: salary.ID})
	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("5"), AccountID: b.ID, CategoryID: salary.ID})
	mustAdd(t, s, ledger.Transaction{Type: ledger.Transfer, Amount: dec("40"), AccountID: a.ID, ToAccountID: b.ID})
	assertBalance(t, s, b.ID, "45")

	if err := s.DeleteAccount(ctx, a.ID, false); !errors.Is(err, ledger.ErrAccountInUse) {
		t.Fatalf("delete without cascade: %v", err)
	}
	if _, err := s.GetAccount(ctx, a.ID); err != nil {
		t.Fatalf("account removed despite refusal: %v", err)
	}

	if err := s.DeleteAccount(ctx, a.ID, true); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := s.GetAccount(ctx, a.ID); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("got %v", err)
	}
	assertBalance(t, s, b.ID, "5")

	txns, err := s.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 || txns[0].AccountID != b.ID {
		t.Fatalf("remaining transactions: %+v", txns)
	}

	empty := mustAccount(t, s, "empty")
	if err := s.DeleteAccount(ctx, empty.ID, false); err != nil {
		t.Fatalf("delete unused account: %v", err)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	b := mustAccount(t, s, "B")
	food := mustCategory(t, s, "food", ledger.Expense)

	day := func(d int) time.Time { return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC) }
	mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID, CategoryID: food.ID, Date: day(1)})
	mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("2"), AccountID: a.ID, CategoryID: food.ID, Date: day(2), Tags: []string{"lunch", "lunch"}})
	mustAdd(t, s, ledger.Transaction{Type: ledger.Transfer, Amount: dec("3"), AccountID: a.ID, ToAccountID: b.ID, Date: day(3)})

	tests := []struct {
		name   string
		filter ledger.TransactionFilter
		want   int
	}{
		{"all", ledger.TransactionFilter{}, 3},
		{"destination side counts", ledger.TransactionFilter{AccountID: b.ID}, 1},
		{"by type", ledger.TransactionFilter{Type: ledger.Expense}, 2},
		{"by category", ledger.TransactionFilter{CategoryID: food.ID}, 2},
		{"inclusive range", ledger.TransactionFilter{From: day(2), To: day(3)}, 2},
		{"limit", ledger.TransactionFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d, want %d", len(got), tt.want)
			}
		})
	}

	latest, err := s.ListTransactions(ctx, ledger.TransactionFilter{Type: ledger.Expense, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(latest[0].Tags) != 1 || latest[0].Tags[0] != "lunch" {
		t.Errorf("tags = %q", latest[0].Tags)
	}
	if !latest[0].Date.Equal(day(2)) {
		t.Errorf("newest expense date = %s", latest[0].Date)
	}
}

func TestRestoreIsAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	salary := mustCategory(t, s, "salary", ledger.Income)
	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("10"), AccountID: a.ID, CategoryID: salary.ID})

	before, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	dup := ledger.Transaction{ID: "t1", Type: ledger.Income, Amount: dec("1"), AccountID: "x", CategoryID: "c", Date: now, CreatedAt: now, UpdatedAt: now}
	bad := &ledger.Dataset{
		Accounts:     []ledger.Account{{ID: "x", Name: "X", Type: ledger.AccountCash, Balance: dec("2"), Currency: "CNY", CreatedAt: now, UpdatedAt: now}},
		Categories:   []ledger.Category{{ID: "c", Name: "c", Type: ledger.Income, CreatedAt: now, UpdatedAt: now}},
		Transactions: []ledger.Transaction{dup, dup},
	}
	if err := s.RestoreFromBackup(ctx, bad); !errors.Is(err, ledger.ErrStorage) {
		t.Fatalf("restore with duplicate ids: %v", err)
	}

	after, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Accounts) != len(before.Accounts) || len(after.Categories) != len(before.Categories) || len(after.Transactions) != len(before.Transactions) {
		t.Fatalf("failed restore changed the store: before %d/%d/%d after %d/%d/%d",
			len(before.Accounts), len(before.Categories), len(before.Transactions),
			len(after.Accounts), len(after.Categories), len(after.Transactions))
	}
	if after.Accounts[0].ID != a.ID || !after.Accounts[0].Balance.Equal(dec("10")) {
		t.Fatalf("account changed: %+v", after.Accounts[0])
	}

	good := &ledger.Dataset{
		Accounts:     bad.Accounts,
		Categories:   bad.Categories,
		Transactions: []ledger.Transaction{dup},
	}
	if err := s.RestoreFromBackup(ctx, good); err != nil {
		t.Fatalf("restore: %v", err)
	}
	// balances come from the backup as-is
	assertBalance(t, s, "x", "2")
	if _, err := s.GetAccount(ctx, a.ID); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("old account survived restore: %v", err)
	}
}

func TestImportBatchIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAccount(t, s, "A")
	food := mustCategory(t, s, "food", ledger.Expense)
	existing := mustAdd(t, s, ledger.Transaction{Type: ledger.Expense, Amount: dec("4"), AccountID: a.ID, CategoryID: food.ID})

	now := time.Now().UTC()
	newCat := ledger.Category{ID: "new", Name: "books", Type: ledger.Expense, CreatedAt: now, UpdatedAt: now}
	clash := ledger.Transaction{ID: existing.ID, Type: ledger.Expense, Amount: dec("9"), AccountID: a.ID, CategoryID: "new", Date: now, CreatedAt: now, UpdatedAt: now}
	fresh := ledger.Transaction{ID: "fresh", Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID, CategoryID: "new", Date: now, CreatedAt: now, UpdatedAt: now}

	if _, err := s.ImportBatch(ctx, a.ID, []ledger.Category{newCat}, []ledger.Transaction{fresh, clash}); err == nil {
		t.Fatal("expected primary key clash to fail the batch")
	}
	if _, err := s.GetCategory(ctx, "new"); !errors.Is(err, ledger.ErrCategoryNotFound) {
		t.Fatalf("category from failed batch persisted: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "fresh"); !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Fatalf("transaction from failed batch persisted: %v", err)
	}
	assertBalance(t, s, a.ID, "-4")

	balance, err := s.ImportBatch(ctx, a.ID, []ledger.Category{newCat}, []ledger.Transaction{fresh})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !balance.Equal(dec("-5")) {
		t.Fatalf("balance after import = %s", balance)
	}
	assertBalance(t, s, a.ID, "-5")
}

func TestSeedOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.Seed(ctx, "")
	if err != nil || !seeded {
		t.Fatalf("first seed: %v %v", seeded, err)
	}
	seeded, err = s.Seed(ctx, "")
	if err != nil || seeded {
		t.Fatalf("second seed: %v %v", seeded, err)
	}

	accts, err := s.ListAccounts(ctx, ledger.AccountFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(accts) != 1 || accts[0].Name != ledger.DefaultAccountName {
		t.Fatalf("accounts = %+v", accts)
	}
	cats, err := s.ListCategories(ctx, ledger.CategoryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if want := len(ledger.BuiltinExpenseCategories) + len(ledger.BuiltinIncomeCategories); len(cats) != want {
		t.Fatalf("got %d categories, want %d", len(cats), want)
	}

	// removing every account reseeds the account but not the builtins
	if err := s.DeleteAccount(ctx, accts[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if seeded, err = s.Seed(ctx, "USD"); err != nil || !seeded {
		t.Fatalf("reseed: %v %v", seeded, err)
	}
	cats, _ = s.ListCategories(ctx, ledger.CategoryFilter{})
	if want := len(ledger.BuiltinExpenseCategories) + len(ledger.BuiltinIncomeCategories); len(cats) != want {
		t.Fatalf("reseed duplicated builtins: %d", len(cats))
	}
}

func TestMutationsPublishAfterCommit(t *testing.T) {
	bus := live.NewBus()
	s, err := Open(filepath.Join(t.TempDir(), "bus.db"),
		WithBus(bus),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var seen [][]live.Collection
	bus.Observe(nil, func(changed []live.Collection) { seen = append(seen, changed) })

	a := mustAccount(t, s, "A")
	if len(seen) != 1 || seen[0][0] != live.Accounts {
		t.Fatalf("create account published %v", seen)
	}

	seen = nil
	bad := ledger.Transaction{Type: ledger.Expense, Amount: dec("1"), AccountID: a.ID, CategoryID: "missing"}
	if err := s.AddTransaction(context.Background(), &bad); err == nil {
		t.Fatal("expected failure")
	}
	if len(seen) != 0 {
		t.Fatalf("failed mutation published %v", seen)
	}

	// observers read committed state
	var balance decimal.Decimal
	bus.Observe([]live.Collection{live.Accounts}, func([]live.Collection) {
		acct, err := s.GetAccount(context.Background(), a.ID)
		if err == nil {
			balance = acct.Balance
		}
	})
	cat := mustCategory(t, s, "in", ledger.Income)
	mustAdd(t, s, ledger.Transaction{Type: ledger.Income, Amount: dec("7"), AccountID: a.ID, CategoryID: cat.ID})
	if !balance.Equal(dec("7")) {
		t.Fatalf("observer saw balance %s", balance)
	}
}
