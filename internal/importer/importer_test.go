package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/store"
)

var cst = time.FixedZone("CST", 8*3600)

func line(fields ...string) string {
	return strings.Join(fields, Delimiter)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "import.db"),
		store.WithLogger(quietLogger()),
		store.WithLocation(cst))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newAccount(t *testing.T, s *store.Store) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{Name: "Wallet", Type: ledger.AccountCash}
	if err := s.CreateAccount(context.Background(), acct); err != nil {
		t.Fatal(err)
	}
	return acct
}

func TestParseLine(t *testing.T) {
	input := line("2017-11-01 00:01", "支出", "餐饮", "-3.00", "早饭")
	parsed, err := Parse(strings.NewReader(input), cst)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Records) != 1 {
		t.Fatalf("records = %d, rejected = %+v", len(parsed.Records), parsed.Rejected)
	}
	rec := parsed.Records[0]
	if !rec.Date.Equal(time.Date(2017, 11, 1, 0, 1, 0, 0, cst)) {
		t.Errorf("date = %s", rec.Date)
	}
	if rec.Type != ledger.Expense || rec.CategoryName != "餐饮" || rec.Note != "早饭" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Amount.Equal(dec("3.00")) {
		t.Errorf("amount = %s", rec.Amount)
	}
}

func TestParseEmptyCategoryFallsBack(t *testing.T) {
	input := line("2017-11-01 12:00", "支出", "", "-8", "午饭")
	parsed, err := Parse(strings.NewReader(input), cst)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Records) != 1 {
		t.Fatalf("records = %d, rejected = %+v", len(parsed.Records), parsed.Rejected)
	}
	if got := parsed.Records[0].CategoryName; got != FallbackCategory {
		t.Errorf("category = %q, want %q", got, FallbackCategory)
	}
}

func TestParseDropsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"\ufeff" + Header,
		"",
		line("2017-11-01 08:00", "收入", "工资", "5000", "十月", "奖金"),
		line("2017-11-01 08:00", "支出", "餐饮"),
		line("yesterday", "支出", "餐饮", "-3.00", ""),
		line("2017-11-01 09:00", "支出", "餐饮", "0", "free"),
		line("2017-11-01 09:00", "支出", "餐饮", "abc", ""),
		line("2017-11-02 10:30", "转账", "其他", "12.5", "") + " \x01 ",
		"   ",
		line("2017-11-03 11:00", "支出", "交通", "-2", "地铁") + "\r",
	}, "\n")

	parsed, err := Parse(strings.NewReader(input), cst)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Records) != 3 {
		t.Fatalf("records = %+v", parsed.Records)
	}
	if len(parsed.Rejected) != 4 {
		t.Fatalf("rejected = %+v", parsed.Rejected)
	}
	for _, rej := range parsed.Rejected {
		if !errors.Is(rej.Err, ledger.ErrMalformedLine) {
			t.Errorf("line %d: %v", rej.Line, rej.Err)
		}
	}

	income := parsed.Records[0]
	if income.Type != ledger.Income || income.Note != "十月 奖金" {
		t.Errorf("income record = %+v", income)
	}
	// any label other than income is read as expense
	if parsed.Records[1].Type != ledger.Expense || !parsed.Records[1].Amount.Equal(dec("12.5")) {
		t.Errorf("transfer-labelled record = %+v", parsed.Records[1])
	}
	if parsed.Records[2].Note != "地铁" || parsed.Records[2].Line != 10 {
		t.Errorf("last record = %+v", parsed.Records[2])
	}
}

func TestImportCreatesCategoriesOnce(t *testing.T) {
	s := newTestStore(t)
	acct := newAccount(t, s)
	im := New(s, WithLocation(cst), WithLogger(quietLogger()))

	var lines []string
	for i := 0; i < 6; i++ {
		lines = append(lines, line("2020-01-0"+string(rune('1'+i))+" 12:00", "支出", "宠物", "-10", ""))
	}
	lines = append(lines, line("2020-01-07 12:00", "收入", "宠物", "1", ""))

	res, err := im.Import(context.Background(), strings.NewReader(strings.Join(lines, "\n")), Options{AccountID: acct.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.CategoriesCreated != 2 || res.Imported != 7 {
		t.Fatalf("result = %+v", res)
	}

	cats, err := s.ListCategories(context.Background(), ledger.CategoryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	count := map[ledger.CategoryKey]int{}
	for _, c := range cats {
		count[c.Key()]++
		if c.IsBuiltin {
			t.Errorf("auto-created category %q marked builtin", c.Name)
		}
	}
	if count[ledger.CategoryKey{Type: ledger.Expense, Name: "宠物"}] != 1 || count[ledger.CategoryKey{Type: ledger.Income, Name: "宠物"}] != 1 {
		t.Fatalf("category counts = %v", count)
	}
	if !res.Balance.Equal(dec("-59")) {
		t.Errorf("balance = %s, want -59", res.Balance)
	}
}

func TestImportTwiceWithDedupIsNoop(t *testing.T) {
	s := newTestStore(t)
	acct := newAccount(t, s)
	if _, err := s.Seed(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	im := New(s, WithLocation(cst), WithLogger(quietLogger()))

	file := strings.Join([]string{
		Header,
		line("2017-11-01 00:01", "支出", "餐饮", "-3.00", "早饭"),
		line("2017-11-01 12:30", "支出", "午饭钱", "-25.5", ""),
		line("2017-11-01 12:30", "支出", "午饭钱", "-25.50", "dup in file"),
		line("2017-11-05 09:00", "收入", "工资", "8000.00", ""),
	}, "\n")

	first, err := im.Import(context.Background(), strings.NewReader(file), Options{AccountID: acct.ID, Dedup: true})
	if err != nil {
		t.Fatal(err)
	}
	if first.Imported != 3 || first.Duplicates != 1 || first.CategoriesCreated != 1 {
		t.Fatalf("first run = %+v", first)
	}

	second, err := im.Import(context.Background(), strings.NewReader(file), Options{AccountID: acct.ID, Dedup: true})
	if err != nil {
		t.Fatal(err)
	}
	if second.Imported != 0 || second.CategoriesCreated != 0 {
		t.Fatalf("second run = %+v", second)
	}
	if !second.Balance.Equal(dec("7971.5")) {
		t.Errorf("balance = %s", second.Balance)
	}
}

func TestImportSkipsExistingSignatures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acct := newAccount(t, s)
	food := &ledger.Category{Name: "餐饮", Type: ledger.Expense}
	if err := s.CreateCategory(ctx, food); err != nil {
		t.Fatal(err)
	}

	// same minute, amount, type and category as two of the file's records
	for _, at := range []time.Time{
		time.Date(2017, 11, 1, 0, 1, 42, 0, cst),
		time.Date(2017, 11, 2, 7, 15, 0, 0, cst),
	} {
		txn := &ledger.Transaction{Type: ledger.Expense, Amount: dec("3"), AccountID: acct.ID, CategoryID: food.ID, Date: at}
		if err := s.AddTransaction(ctx, txn); err != nil {
			t.Fatal(err)
		}
	}

	file := strings.Join([]string{
		line("2017-11-01 00:01", "支出", "餐饮", "-3.00", "早饭"),
		line("2017-11-02 07:15", "支出", "餐饮", "-3.00", "早饭"),
		line("2017-11-02 07:16", "支出", "餐饮", "-3.00", "早饭"),
		line("2017-11-02 07:15", "支出", "餐饮", "-4.00", "早饭"),
		line("2017-11-02 07:15", "收入", "餐饮", "3.00", "AA"),
	}, "\n")

	im := New(s, WithLocation(cst), WithLogger(quietLogger()))
	dups, err := im.CountDuplicates(ctx, strings.NewReader(file), acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if dups != 2 {
		t.Fatalf("CountDuplicates = %d, want 2", dups)
	}

	res, err := im.Import(ctx, strings.NewReader(file), Options{AccountID: acct.ID, Dedup: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 3 || res.Duplicates != 2 {
		t.Fatalf("result = %+v", res)
	}
	// -3 -3 existing, then -3 -4 +3 imported
	if !res.Balance.Equal(dec("-10")) {
		t.Errorf("balance = %s", res.Balance)
	}

	without, err := im.Import(ctx, strings.NewReader(file), Options{AccountID: acct.ID})
	if err != nil {
		t.Fatal(err)
	}
	if without.Imported != 5 || without.Duplicates != 0 {
		t.Fatalf("import without dedup = %+v", without)
	}
}

func TestImportUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	im := New(s, WithLocation(cst), WithLogger(quietLogger()))
	_, err := im.Import(context.Background(), strings.NewReader(line("2017-11-01 00:01", "支出", "餐饮", "-3", "")), Options{AccountID: "missing"})
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("got %v", err)
	}
	cats, _ := s.ListCategories(context.Background(), ledger.CategoryFilter{})
	if len(cats) != 0 {
		t.Fatalf("categories created for a rejected import: %d", len(cats))
	}
}

// failingStore makes the bulk write fail part way through by repeating the
// first transaction id.
type failingStore struct {
	*store.Store
}

func (f failingStore) ImportBatch(ctx context.Context, accountID string, cats []ledger.Category, txns []ledger.Transaction) (decimal.Decimal, error) {
	if len(txns) > 0 {
		txns = append(txns, txns[0])
	}
	return f.Store.ImportBatch(ctx, accountID, cats, txns)
}

func TestImportFailureLeavesStoreUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acct := newAccount(t, s)
	good := New(s, WithLocation(cst), WithLogger(quietLogger()))
	if _, err := good.Import(ctx, strings.NewReader(line("2019-03-01 10:00", "收入", "工资", "100", "")), Options{AccountID: acct.ID}); err != nil {
		t.Fatal(err)
	}
	before, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	bad := New(failingStore{s}, WithLocation(cst), WithLogger(quietLogger()))
	file := strings.Join([]string{
		line("2019-03-02 10:00", "支出", "新分类", "-1", ""),
		line("2019-03-03 10:00", "支出", "另一个", "-2", ""),
	}, "\n")
	if _, err := bad.Import(ctx, strings.NewReader(file), Options{AccountID: acct.ID}); !errors.Is(err, ledger.ErrStorage) {
		t.Fatalf("got %v, want storage error", err)
	}

	after, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Categories) != len(before.Categories) || len(after.Transactions) != len(before.Transactions) {
		t.Fatalf("failed import changed the store: %d/%d categories, %d/%d transactions",
			len(before.Categories), len(after.Categories), len(before.Transactions), len(after.Transactions))
	}
	if !after.Accounts[0].Balance.Equal(before.Accounts[0].Balance) {
		t.Fatalf("balance changed: %s -> %s", before.Accounts[0].Balance, after.Accounts[0].Balance)
	}
}

func TestExportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acct := newAccount(t, s)
	other := &ledger.Account{Name: "Bank", Type: ledger.AccountBank}
	if err := s.CreateAccount(ctx, other); err != nil {
		t.Fatal(err)
	}
	im := New(s, WithLocation(cst), WithLogger(quietLogger()))

	file := strings.Join([]string{
		line("2018-06-02 18:00", "收入", "工资", "100.10", "六月"),
		line("2018-06-01 08:00", "支出", "餐饮", "-3.5", ""),
	}, "\n")
	if _, err := im.Import(ctx, strings.NewReader(file), Options{AccountID: acct.ID}); err != nil {
		t.Fatal(err)
	}
	transfer := &ledger.Transaction{Type: ledger.Transfer, Amount: dec("20"), AccountID: acct.ID, ToAccountID: other.ID,
		Date: time.Date(2018, 6, 3, 9, 30, 0, 0, cst)}
	if err := s.AddTransaction(ctx, transfer); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	n, err := im.Export(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("exported %d records", n)
	}
	got := strings.Split(buf.String(), "\n")
	want := []string{
		Header,
		line("2018-06-01 08:00", "支出", "餐饮", "-3.50", ""),
		line("2018-06-02 18:00", "收入", "工资", "100.10", "六月"),
		line("2018-06-03 09:30", "转账", "其他", "20.00", ""),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(got), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	// income and expense lines come back as duplicates of themselves
	dups, err := im.CountDuplicates(ctx, strings.NewReader(buf.String()), acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if dups != 2 {
		t.Errorf("re-import duplicates = %d, want 2", dups)
	}
}
