package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/money"
)

// Delimiter separates fields: SOH flanked by single spaces.
const Delimiter = " \x01 "

const (
	headerPrefix  = "记账日期"
	labelIncome   = "收入"
	labelExpense  = "支出"
	labelTransfer = "转账"

	// FallbackCategory names records whose category is empty on import or
	// cannot be resolved on export.
	FallbackCategory = "其他"
)

// Header is the first line of an exported file.
var Header = strings.Join([]string{"记账日期", "消费类别", "消费详情", "消费金额", "消费备注"}, Delimiter)

const dateLayout = "2006-01-02 15:04"

// Also accepted on import.
var extraDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// Record is one parsed line. Amount is always positive; direction comes
// from Type.
type Record struct {
	Line         int
	Date         time.Time
	Type         ledger.TransactionType
	CategoryName string
	Amount       decimal.Decimal
	Note         string
}

// Rejected is a line that was dropped during parsing.
type Rejected struct {
	Line int
	Text string
	Err  error
}

type Parsed struct {
	Records  []Record
	Rejected []Rejected
}

// Parse reads the legacy text format. Malformed lines are collected in
// Rejected and never abort the parse; only read errors are returned.
func Parse(r io.Reader, loc *time.Location) (*Parsed, error) {
	if loc == nil {
		loc = time.Local
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := &Parsed{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := sc.Text()
		if lineNo == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		line := strings.TrimSpace(text)
		if line == "" || strings.HasPrefix(line, headerPrefix) {
			continue
		}
		rec, err := parseLine(line, loc)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejected{Line: lineNo, Text: line, Err: err})
			continue
		}
		rec.Line = lineNo
		out.Records = append(out.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read legacy file: %w", err)
	}
	return out, nil
}

func parseLine(line string, loc *time.Location) (Record, error) {
	parts := strings.Split(line, Delimiter)
	for i := range parts {
		parts[i] = trimField(parts[i])
	}
	if len(parts) < 4 {
		return Record{}, fmt.Errorf("%w: %d fields, need at least 4", ledger.ErrMalformedLine, len(parts))
	}

	date, err := parseDate(parts[0], loc)
	if err != nil {
		return Record{}, err
	}

	typ := ledger.Expense
	if parts[1] == labelIncome {
		typ = ledger.Income
	}

	amount, err := money.Parse(parts[3])
	if err != nil {
		return Record{}, fmt.Errorf("%w: amount %q", ledger.ErrMalformedLine, parts[3])
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return Record{}, fmt.Errorf("%w: zero amount", ledger.ErrMalformedLine)
	}

	category := parts[2]
	if category == "" {
		category = FallbackCategory
	}

	return Record{
		Date:         date,
		Type:         typ,
		CategoryName: category,
		Amount:       amount,
		Note:         strings.TrimSpace(strings.Join(parts[4:], " ")),
	}, nil
}

// trimField drops surrounding whitespace and stray SOH bytes left when a
// line ends with an empty note.
func trimField(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '\x01' || unicode.IsSpace(r)
	})
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ledger.ErrMalformedLine, s)
}

// FormatLine renders one transaction. Expense amounts are written negative,
// everything else positive, always with two decimals.
func FormatLine(txn *ledger.Transaction, categoryName string, loc *time.Location) string {
	label := labelTransfer
	amount := txn.Amount
	switch txn.Type {
	case ledger.Expense:
		label = labelExpense
		amount = amount.Neg()
	case ledger.Income:
		label = labelIncome
	}
	if categoryName == "" {
		categoryName = FallbackCategory
	}
	return strings.Join([]string{
		txn.Date.In(loc).Format(dateLayout),
		label,
		categoryName,
		money.FormatCents(amount),
		txn.Note,
	}, Delimiter)
}
